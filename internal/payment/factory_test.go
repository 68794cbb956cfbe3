package payment_test

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/aims-commerce/internal"
	paymentPkg "github.com/frahmantamala/aims-commerce/internal/payment"
)

var _ = Describe("Coordinator", func() {
	var (
		coordinator *paymentPkg.Coordinator
		vnpaySvc    *paymentPkg.VNPayService
		codSvc      *paymentPkg.CODService
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo := newMockTxnRepository()
		vnpaySvc = paymentPkg.NewVNPayService(&mockGateway{}, repo, logger)
		codSvc = paymentPkg.NewCODService(repo, logger)

		coordinator = paymentPkg.NewCoordinator(logger,
			paymentPkg.NewVietnamFactory(vnpaySvc, codSvc),
			paymentPkg.NewGlobalFactory(),
		)
	})

	Context("routing supported methods", func() {
		It("should route vnpay to the VNPay service", func() {
			service, err := coordinator.ServiceFor(paymentPkg.MethodVNPay, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(service.PaymentMethodName()).To(Equal(paymentPkg.MethodVNPay))
		})

		It("should route cod to the COD service", func() {
			service, err := coordinator.ServiceFor(paymentPkg.MethodCOD, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(service.PaymentMethodName()).To(Equal(paymentPkg.MethodCOD))
		})

		It("should honor an explicit region", func() {
			service, err := coordinator.ServiceFor(paymentPkg.MethodVNPay, paymentPkg.RegionVietnam)

			Expect(err).ToNot(HaveOccurred())
			Expect(service.PaymentMethodName()).To(Equal(paymentPkg.MethodVNPay))
		})
	})

	Context("methods reserved for future markets", func() {
		It("should fail card payments with a typed unsupported error", func() {
			service, err := coordinator.ServiceFor(paymentPkg.MethodCard, "")

			Expect(service).To(BeNil())
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeUnsupportedPaymentMethod))
		})

		It("should fail bank transfers the same way", func() {
			service, err := coordinator.ServiceFor(paymentPkg.MethodBankTransfer, paymentPkg.RegionGlobal)

			Expect(service).To(BeNil())
			Expect(err).To(HaveOccurred())
		})
	})

	Context("region filtering", func() {
		It("should not serve vnpay outside Vietnam", func() {
			service, err := coordinator.ServiceFor(paymentPkg.MethodVNPay, paymentPkg.RegionGlobal)

			Expect(service).To(BeNil())
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeUnsupportedPaymentMethod))
		})
	})

	Context("unknown methods", func() {
		It("should reject a method no factory supports", func() {
			service, err := coordinator.ServiceFor("paypal", "")

			Expect(service).To(BeNil())
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeUnsupportedPaymentMethod))
		})
	})
})

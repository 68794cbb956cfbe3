package payment_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/aims-commerce/internal/payment"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

type mockOrderAccess struct {
	err error
}

func (m *mockOrderAccess) CanAccessOrder(ctx context.Context, customerID int64, orderID string) error {
	return m.err
}

func statusRequest(orderID string, customerID int64) *http.Request {
	req := httptest.NewRequest("GET", "/api/v1/payment/"+orderID+"/status", nil)
	if customerID != 0 {
		req = req.WithContext(internal.ContextWithCustomerID(req.Context(), customerID))
	}
	return req
}

var _ = ginkgo.Describe("PaymentHandler", func() {
	var (
		router   *chi.Mux
		repo     *mockTxnRepository
		gateway  *mockGateway
		access   *mockOrderAccess
		recorder *httptest.ResponseRecorder
	)

	ginkgo.BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMockTxnRepository()
		gateway = &mockGateway{
			queryResult: &vnpay.QueryResult{
				ResponseCode:      vnpay.CodeSuccess,
				TransactionStatus: vnpay.CodeSuccess,
			},
		}
		access = &mockOrderAccess{}

		coordinator := paymentpkg.NewCoordinator(logger,
			paymentpkg.NewVietnamFactory(
				paymentpkg.NewVNPayService(gateway, repo, logger),
				paymentpkg.NewCODService(repo, logger),
			),
		)
		handler := paymentpkg.NewHandler(coordinator, repo, access)

		router = chi.NewRouter()
		router.Get("/api/v1/payment/{orderID}/status", handler.GetPaymentStatus)
		recorder = httptest.NewRecorder()
	})

	ginkgo.When("the customer owns a paid vnpay order", func() {
		ginkgo.It("should return the merged transaction and gateway status", func() {
			paidAt := time.Now().Add(-time.Hour)
			repo.seed(&payment.PaymentTransaction{
				ID:            1,
				OrderID:       "1001",
				TxnRef:        "100112345678",
				Amount:        150000,
				Currency:      "VND",
				PaymentMethod: paymentpkg.MethodVNPay,
				Status:        paymentpkg.StatusSuccess,
				PaidAt:        &paidAt,
				CreatedAt:     paidAt,
			})

			router.ServeHTTP(recorder, statusRequest("1001", 7))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			var resp paymentpkg.PaymentStatusResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.OrderID).To(gomega.Equal("1001"))
			gomega.Expect(resp.TransactionID).To(gomega.Equal("100112345678"))
			gomega.Expect(resp.Method).To(gomega.Equal(paymentpkg.MethodVNPay))
			gomega.Expect(resp.Status).To(gomega.Equal(paymentpkg.StatusSuccess))
			gomega.Expect(resp.ResponseCode).To(gomega.Equal("00"))
			gomega.Expect(resp.Amount).To(gomega.Equal(int64(150000)))
		})
	})

	ginkgo.When("no customer is authenticated", func() {
		ginkgo.It("should return unauthorized", func() {
			router.ServeHTTP(recorder, statusRequest("1001", 0))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.When("the order belongs to someone else", func() {
		ginkgo.It("should return forbidden", func() {
			access.err = internal.ErrUnauthorizedAccess

			router.ServeHTTP(recorder, statusRequest("1001", 7))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
		})
	})

	ginkgo.When("the order has no payment transaction", func() {
		ginkgo.It("should return not found", func() {
			router.ServeHTTP(recorder, statusRequest("1001", 7))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.When("the stored method has no service registered", func() {
		ginkgo.It("should return unprocessable entity", func() {
			repo.seed(&payment.PaymentTransaction{
				ID:            1,
				OrderID:       "1001",
				TxnRef:        "PP-1",
				Amount:        150000,
				PaymentMethod: "paypal",
				Status:        paymentpkg.StatusSuccess,
				CreatedAt:     time.Now(),
			})

			router.ServeHTTP(recorder, statusRequest("1001", 7))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnprocessableEntity))
		})
	})
})

package order_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/aims-commerce/internal"
	cartPkg "github.com/frahmantamala/aims-commerce/internal/cart"
	"github.com/frahmantamala/aims-commerce/internal/commandbus"
	"github.com/frahmantamala/aims-commerce/internal/core/events"
	orderPkg "github.com/frahmantamala/aims-commerce/internal/order"
	"github.com/frahmantamala/aims-commerce/internal/payment"
)

type mockOrderRepository struct {
	orders      map[int64]*orderPkg.Order
	nextID      int64
	createError error
	updateError error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[int64]*orderPkg.Order),
		nextID: 1,
	}
}

// store keeps copies so handlers never share state with the "database".
func (m *mockOrderRepository) store(o *orderPkg.Order) {
	cp := *o
	cp.Items = append([]orderPkg.Item(nil), o.Items...)
	m.orders[cp.ID] = &cp
}

func (m *mockOrderRepository) Create(o *orderPkg.Order) error {
	if m.createError != nil {
		return m.createError
	}
	o.ID = m.nextID
	m.nextID++
	m.store(o)
	return nil
}

func (m *mockOrderRepository) GetByID(id int64) (*orderPkg.Order, error) {
	o, exists := m.orders[id]
	if !exists {
		return nil, apperrors.ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]orderPkg.Item(nil), o.Items...)
	return &cp, nil
}

func (m *mockOrderRepository) ListByCustomer(customerID int64, limit, offset int) ([]*orderPkg.Order, error) {
	var result []*orderPkg.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockOrderRepository) Update(o *orderPkg.Order) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, exists := m.orders[o.ID]; !exists {
		return apperrors.ErrOrderNotFound
	}
	m.store(o)
	return nil
}

type mockCartService struct {
	lines      []cartPkg.CheckoutLine
	linesError error
	clearError error
	clearCalls int
}

func (m *mockCartService) CheckoutLines(ctx context.Context, customerID int64) ([]cartPkg.CheckoutLine, error) {
	if m.linesError != nil {
		return nil, m.linesError
	}
	return m.lines, nil
}

func (m *mockCartService) Clear(ctx context.Context, customerID int64) error {
	if m.clearError != nil {
		return m.clearError
	}
	m.clearCalls++
	return nil
}

type mockStockService struct {
	failProductID int64
	decrements    map[int64]int
	increments    map[int64]int
}

func newMockStockService() *mockStockService {
	return &mockStockService{
		decrements: make(map[int64]int),
		increments: make(map[int64]int),
	}
}

func (m *mockStockService) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	if productID == m.failProductID {
		return apperrors.ErrInsufficientStock
	}
	m.decrements[productID] += quantity
	return nil
}

func (m *mockStockService) IncrementStock(ctx context.Context, productID int64, quantity int) error {
	m.increments[productID] += quantity
	return nil
}

type mockPaymentService struct {
	method        string
	payResult     *payment.PaymentResult
	payError      error
	refundResult  *payment.RefundResult
	refundError   error
	payCalls      int
	refundCalls   int
	lastPayReq    *payment.PaymentRequest
	lastRefundReq *payment.RefundRequest
}

func (m *mockPaymentService) PaymentMethodName() string { return m.method }

func (m *mockPaymentService) ProcessPayment(ctx context.Context, req *payment.PaymentRequest) (*payment.PaymentResult, error) {
	m.payCalls++
	m.lastPayReq = req
	if m.payError != nil {
		return nil, m.payError
	}
	return m.payResult, nil
}

func (m *mockPaymentService) ProcessRefund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResult, error) {
	m.refundCalls++
	m.lastRefundReq = req
	if m.refundError != nil {
		return nil, m.refundError
	}
	return m.refundResult, nil
}

func (m *mockPaymentService) GetPaymentStatus(ctx context.Context, orderID string) (*payment.PaymentStatusResult, error) {
	return &payment.PaymentStatusResult{Success: true}, nil
}

func (m *mockPaymentService) ValidateTransaction(ctx context.Context, transactionID string) (bool, error) {
	return true, nil
}

type mockPaymentCoordinator struct {
	services map[string]payment.DomainService
}

func (m *mockPaymentCoordinator) ServiceFor(method, region string) (payment.DomainService, error) {
	svc, ok := m.services[method]
	if !ok {
		return nil, apperrors.NewUnsupportedError(
			"unsupported payment method: "+method,
			apperrors.ErrCodeUnsupportedPaymentMethod)
	}
	return svc, nil
}

var _ = Describe("OrderCommandHandlers", func() {
	var (
		repo        *mockOrderRepository
		carts       *mockCartService
		stock       *mockStockService
		vnpaySvc    *mockPaymentService
		codSvc      *mockPaymentService
		coordinator *mockPaymentCoordinator
		store       *events.Store
		eventBus    *events.EventBus
		bus         *commandbus.Bus
		ctx         context.Context
		customerID  int64
	)

	deliveryDTO := func(method, province string) orderPkg.PlaceOrderDTO {
		return orderPkg.PlaceOrderDTO{
			PaymentMethod:    method,
			DeliveryName:     "Nguyen Van A",
			DeliveryPhone:    "0912345678",
			DeliveryAddress:  "1 Trang Tien",
			DeliveryProvince: province,
		}
	}

	placeOrder := func(method string) *orderPkg.PlaceOrderResult {
		res, err := bus.Execute(ctx, &orderPkg.PlaceOrderCommand{
			CustomerID:    customerID,
			ClientIP:      "10.0.0.1",
			PlaceOrderDTO: deliveryDTO(method, "Hanoi"),
		})
		Expect(err).NotTo(HaveOccurred())
		result, ok := res.(*orderPkg.PlaceOrderResult)
		Expect(ok).To(BeTrue())
		return result
	}

	seedOrder := func(method string, mutate func(*orderPkg.Order)) *orderPkg.Order {
		o := orderPkg.NewOrder(customerID, method, deliveryDTO(method, "Hanoi"), []orderPkg.Item{
			{ProductID: 1, ProductTitle: "Clean Code", UnitPrice: 120000, Quantity: 1},
		})
		if mutate != nil {
			mutate(o)
		}
		Expect(repo.Create(o)).To(Succeed())
		return o
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()
		customerID = 42

		repo = newMockOrderRepository()
		carts = &mockCartService{
			lines: []cartPkg.CheckoutLine{
				{ProductID: 1, Title: "Clean Code", UnitPrice: 120000, Quantity: 1},
				{ProductID: 2, Title: "Abbey Road", UnitPrice: 350000, Quantity: 2},
			},
		}
		stock = newMockStockService()

		vnpaySvc = &mockPaymentService{
			method: payment.MethodVNPay,
			payResult: &payment.PaymentResult{
				Success:       true,
				TransactionID: "TXN-1",
				PaymentURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_TxnRef=TXN-1",
			},
			refundResult: &payment.RefundResult{
				Success:  true,
				RefundID: "refund-1",
				Status:   payment.StatusRefundPending,
			},
		}
		codSvc = &mockPaymentService{
			method: payment.MethodCOD,
			payResult: &payment.PaymentResult{
				Success:       true,
				TransactionID: "COD-1",
			},
		}
		coordinator = &mockPaymentCoordinator{
			services: map[string]payment.DomainService{
				payment.MethodVNPay: vnpaySvc,
				payment.MethodCOD:   codSvc,
			},
		}

		store = events.NewStore()
		eventBus = events.NewEventBus(store, logger)
		orderPkg.RegisterEventHandlers(eventBus, orderPkg.NewEventHandler(repo, logger))

		bus = commandbus.New(logger)
		orderPkg.RegisterCommandHandlers(bus, orderPkg.NewCommandHandlers(repo, carts, stock, coordinator, eventBus, logger))
	})

	Describe("PlaceOrder", func() {
		Context("with a redirect method", func() {
			It("should place a pending order and hand back the payment URL", func() {
				result := placeOrder(payment.MethodVNPay)

				Expect(result.Success).To(BeTrue())
				Expect(result.Order.Status).To(Equal(orderPkg.StatusPending))
				Expect(result.Order.Subtotal).To(Equal(int64(820000)))
				Expect(result.Order.ShippingFee).To(BeZero())
				Expect(result.Order.TotalAmount).To(Equal(int64(820000)))
				Expect(result.Payment.Success).To(BeTrue())
				Expect(result.Payment.PaymentURL).To(ContainSubstring("vnpayment.vn"))
				Expect(result.Payment.TransactionID).To(Equal("TXN-1"))
			})

			It("should reserve stock for every line", func() {
				placeOrder(payment.MethodVNPay)

				Expect(stock.decrements).To(HaveKeyWithValue(int64(1), 1))
				Expect(stock.decrements).To(HaveKeyWithValue(int64(2), 2))
			})

			It("should clear the cart and publish order.created", func() {
				placeOrder(payment.MethodVNPay)

				Expect(carts.clearCalls).To(Equal(1))
				Expect(store.ByType(events.EventTypeOrderCreated)).To(HaveLen(1))
			})

			It("should pass order totals and client IP to the gateway", func() {
				result := placeOrder(payment.MethodVNPay)

				Expect(vnpaySvc.lastPayReq.OrderID).To(Equal(strconv.FormatInt(result.Order.ID, 10)))
				Expect(vnpaySvc.lastPayReq.Amount).To(Equal(int64(820000)))
				Expect(vnpaySvc.lastPayReq.ClientIP).To(Equal("10.0.0.1"))
			})

			It("should keep the order when placement succeeds but the cart clear fails", func() {
				carts.clearError = errors.New("connection reset")

				result := placeOrder(payment.MethodVNPay)

				Expect(result.Success).To(BeTrue())
				_, err := repo.GetByID(result.Order.ID)
				Expect(err).NotTo(HaveOccurred())
			})
		})

		Context("shipping fee", func() {
			BeforeEach(func() {
				carts.lines = []cartPkg.CheckoutLine{
					{ProductID: 1, Title: "Clean Code", UnitPrice: 35000, Quantity: 2},
				}
			})

			It("should charge the inner city rate below the free threshold", func() {
				result := placeOrder(payment.MethodVNPay)

				Expect(result.Order.Subtotal).To(Equal(int64(70000)))
				Expect(result.Order.ShippingFee).To(Equal(int64(22000)))
				Expect(result.Order.TotalAmount).To(Equal(int64(92000)))
			})

			It("should charge the province rate outside the big cities", func() {
				res, err := bus.Execute(ctx, &orderPkg.PlaceOrderCommand{
					CustomerID:    customerID,
					ClientIP:      "10.0.0.1",
					PlaceOrderDTO: deliveryDTO(payment.MethodVNPay, "Da Nang"),
				})
				Expect(err).NotTo(HaveOccurred())
				result := res.(*orderPkg.PlaceOrderResult)

				Expect(result.Order.ShippingFee).To(Equal(int64(30000)))
				Expect(result.Order.TotalAmount).To(Equal(int64(100000)))
			})
		})

		Context("with cash on delivery", func() {
			It("should confirm the order before returning", func() {
				result := placeOrder(payment.MethodCOD)

				Expect(result.Success).To(BeTrue())
				Expect(result.Payment.Success).To(BeTrue())
				Expect(result.Payment.PaymentURL).To(BeEmpty())
				Expect(result.Order.Status).To(Equal(orderPkg.StatusConfirmed))

				stored, err := repo.GetByID(result.Order.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.Status).To(Equal(orderPkg.StatusConfirmed))
				Expect(stored.PaidAt).NotTo(BeNil())
				Expect(store.ByType(events.EventTypePaymentProcessed)).To(HaveLen(1))
			})
		})

		Context("when the cart is empty", func() {
			BeforeEach(func() {
				carts.lines = nil
			})

			It("should fail without creating an order or touching stock", func() {
				result := placeOrder(payment.MethodVNPay)

				Expect(result.Success).To(BeFalse())
				Expect(result.ErrorCode).To(Equal(string(apperrors.ErrCodeCartEmpty)))
				Expect(repo.orders).To(BeEmpty())
				Expect(stock.decrements).To(BeEmpty())
				Expect(store.Len()).To(BeZero())
			})
		})

		Context("with an unsupported payment method", func() {
			It("should fail before reading the cart", func() {
				result := placeOrder(payment.MethodCard)

				Expect(result.Success).To(BeFalse())
				Expect(result.ErrorCode).To(Equal(string(apperrors.ErrCodeUnsupportedPaymentMethod)))
				Expect(repo.orders).To(BeEmpty())
				Expect(carts.clearCalls).To(BeZero())
			})
		})

		Context("when a line cannot be reserved", func() {
			BeforeEach(func() {
				stock.failProductID = 2
			})

			It("should restock what was already reserved and name the product", func() {
				result := placeOrder(payment.MethodVNPay)

				Expect(result.Success).To(BeFalse())
				Expect(result.ErrorCode).To(Equal(string(apperrors.ErrCodeInsufficientStock)))
				Expect(result.Message).To(ContainSubstring("Abbey Road"))
				Expect(stock.increments).To(HaveKeyWithValue(int64(1), 1))
				Expect(repo.orders).To(BeEmpty())
				Expect(carts.clearCalls).To(BeZero())
			})
		})

		Context("when the gateway declines the first attempt", func() {
			BeforeEach(func() {
				vnpaySvc.payResult = &payment.PaymentResult{
					Success:       false,
					TransactionID: "TXN-2",
					ErrorCode:     "24",
					Message:       "customer cancelled the transaction",
				}
			})

			It("should keep the order pending for a retry", func() {
				result := placeOrder(payment.MethodVNPay)

				Expect(result.Success).To(BeTrue())
				Expect(result.Order.Status).To(Equal(orderPkg.StatusPending))
				Expect(result.Payment.Success).To(BeFalse())
				Expect(result.Payment.ErrorCode).To(Equal("24"))
				Expect(store.ByType(events.EventTypePaymentFailed)).To(HaveLen(1))

				stored, err := repo.GetByID(result.Order.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.PaymentFailureReason).NotTo(BeNil())
				Expect(*stored.PaymentFailureReason).To(Equal("customer cancelled the transaction"))
			})
		})

		Context("when the gateway cannot be reached", func() {
			BeforeEach(func() {
				vnpaySvc.payError = errors.New("dial tcp: connection refused")
			})

			It("should still place the order and report the attempt as failed", func() {
				result := placeOrder(payment.MethodVNPay)

				Expect(result.Success).To(BeTrue())
				Expect(result.Payment.Success).To(BeFalse())
				Expect(result.Payment.ErrorCode).To(Equal(string(apperrors.ErrCodeExecutionFailed)))
				Expect(store.ByType(events.EventTypePaymentFailed)).To(HaveLen(1))
			})
		})

		Context("with an invalid command", func() {
			It("should be rejected by the bus before the handler runs", func() {
				dto := deliveryDTO(payment.MethodVNPay, "Hanoi")
				dto.DeliveryName = ""

				_, err := bus.Execute(ctx, &orderPkg.PlaceOrderCommand{
					CustomerID:    customerID,
					PlaceOrderDTO: dto,
				})

				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeValidationFailed))
				Expect(repo.orders).To(BeEmpty())
			})
		})
	})

	Describe("ProcessPayment", func() {
		It("should start a new attempt for a pending order", func() {
			o := seedOrder(payment.MethodVNPay, nil)

			res, err := bus.Execute(ctx, &orderPkg.ProcessPaymentCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
				BankCode:   "NCB",
				Language:   "vn",
				ClientIP:   "10.0.0.1",
			})

			Expect(err).NotTo(HaveOccurred())
			result := res.(*orderPkg.PaymentActionResult)
			Expect(result.Success).To(BeTrue())
			Expect(result.PaymentURL).NotTo(BeEmpty())
			Expect(vnpaySvc.payCalls).To(Equal(1))
			Expect(vnpaySvc.lastPayReq.BankCode).To(Equal("NCB"))
		})

		It("should refuse an order that is no longer pending", func() {
			o := seedOrder(payment.MethodVNPay, func(o *orderPkg.Order) {
				Expect(o.MarkAsPaid()).To(Succeed())
			})

			_, err := bus.Execute(ctx, &orderPkg.ProcessPaymentCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
			})

			Expect(err).To(Equal(apperrors.ErrInvalidOrderStatus))
			Expect(vnpaySvc.payCalls).To(BeZero())
		})

		It("should refuse another customer's order", func() {
			o := seedOrder(payment.MethodVNPay, nil)

			_, err := bus.Execute(ctx, &orderPkg.ProcessPaymentCommand{
				OrderID:    o.ID,
				CustomerID: 999,
			})

			Expect(err).To(Equal(apperrors.ErrUnauthorizedAccess))
		})

		It("should report an unknown order", func() {
			_, err := bus.Execute(ctx, &orderPkg.ProcessPaymentCommand{
				OrderID:    4242,
				CustomerID: customerID,
			})

			Expect(err).To(Equal(apperrors.ErrOrderNotFound))
		})
	})

	Describe("CancelOrder", func() {
		It("should cancel a pending order without a refund and restock it", func() {
			o := seedOrder(payment.MethodVNPay, nil)

			res, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
			})

			Expect(err).NotTo(HaveOccurred())
			result := res.(*orderPkg.CancelOrderResult)
			Expect(result.Success).To(BeTrue())
			Expect(result.Status).To(Equal(orderPkg.StatusCancelled))
			Expect(result.RefundIssued).To(BeFalse())
			Expect(vnpaySvc.refundCalls).To(BeZero())
			Expect(stock.increments).To(HaveKeyWithValue(int64(1), 1))
			Expect(store.ByType(events.EventTypeOrderCancelled)).To(HaveLen(1))

			stored, _ := repo.GetByID(o.ID)
			Expect(*stored.CancelReason).To(Equal("cancelled by customer"))
		})

		It("should skip the refund for confirmed cash on delivery orders", func() {
			o := seedOrder(payment.MethodCOD, func(o *orderPkg.Order) {
				Expect(o.MarkAsPaid()).To(Succeed())
			})

			res, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
				Reason:     "ordered twice",
			})

			Expect(err).NotTo(HaveOccurred())
			result := res.(*orderPkg.CancelOrderResult)
			Expect(result.Success).To(BeTrue())
			Expect(result.RefundIssued).To(BeFalse())
			Expect(codSvc.refundCalls).To(BeZero())
		})

		It("should refund a confirmed gateway order before cancelling it", func() {
			o := seedOrder(payment.MethodVNPay, func(o *orderPkg.Order) {
				Expect(o.MarkAsPaid()).To(Succeed())
			})

			res, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
				Reason:     "damaged packaging",
			})

			Expect(err).NotTo(HaveOccurred())
			result := res.(*orderPkg.CancelOrderResult)
			Expect(result.Success).To(BeTrue())
			Expect(result.RefundIssued).To(BeTrue())
			Expect(result.RefundID).To(Equal("refund-1"))

			Expect(vnpaySvc.refundCalls).To(Equal(1))
			Expect(vnpaySvc.lastRefundReq.OrderID).To(Equal(strconv.FormatInt(o.ID, 10)))
			Expect(vnpaySvc.lastRefundReq.Reason).To(Equal("damaged packaging"))
			Expect(vnpaySvc.lastRefundReq.RequestedBy).To(Equal("customer:42"))

			stored, _ := repo.GetByID(o.ID)
			Expect(stored.Status).To(Equal(orderPkg.StatusCancelled))
			Expect(stored.RefundedAt).NotTo(BeNil())
		})

		It("should refund shipped orders the same way", func() {
			o := seedOrder(payment.MethodVNPay, func(o *orderPkg.Order) {
				Expect(o.MarkAsPaid()).To(Succeed())
				Expect(o.MarkAsShipped()).To(Succeed())
			})

			res, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
			})

			Expect(err).NotTo(HaveOccurred())
			result := res.(*orderPkg.CancelOrderResult)
			Expect(result.Success).To(BeTrue())
			Expect(result.RefundIssued).To(BeTrue())
		})

		It("should leave the order untouched when the gateway rejects the refund", func() {
			vnpaySvc.refundResult = &payment.RefundResult{
				Success:   false,
				ErrorCode: "91",
				Message:   "transaction not found at gateway",
			}
			o := seedOrder(payment.MethodVNPay, func(o *orderPkg.Order) {
				Expect(o.MarkAsPaid()).To(Succeed())
			})

			res, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
			})

			Expect(err).NotTo(HaveOccurred())
			result := res.(*orderPkg.CancelOrderResult)
			Expect(result.Success).To(BeFalse())
			Expect(result.ErrorCode).To(Equal("91"))
			Expect(result.Message).To(ContainSubstring("refund failed"))

			stored, _ := repo.GetByID(o.ID)
			Expect(stored.Status).To(Equal(orderPkg.StatusConfirmed))
			Expect(stock.increments).To(BeEmpty())
			Expect(store.ByType(events.EventTypeOrderCancelled)).To(BeEmpty())
		})

		It("should surface a refund transport failure as an execution error", func() {
			vnpaySvc.refundError = errors.New("gateway timeout")
			o := seedOrder(payment.MethodVNPay, func(o *orderPkg.Order) {
				Expect(o.MarkAsPaid()).To(Succeed())
			})

			_, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
			})

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeExecutionFailed))

			stored, _ := repo.GetByID(o.ID)
			Expect(stored.Status).To(Equal(orderPkg.StatusConfirmed))
		})

		It("should report an already cancelled order as a failure result", func() {
			o := seedOrder(payment.MethodVNPay, func(o *orderPkg.Order) {
				Expect(o.Cancel("earlier")).To(Succeed())
			})

			res, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: customerID,
			})

			Expect(err).NotTo(HaveOccurred())
			result := res.(*orderPkg.CancelOrderResult)
			Expect(result.Success).To(BeFalse())
			Expect(result.ErrorCode).To(Equal(string(apperrors.ErrCodeInvalidOrderStatus)))
		})

		It("should refuse another customer's order", func() {
			o := seedOrder(payment.MethodVNPay, nil)

			_, err := bus.Execute(ctx, &orderPkg.CancelOrderCommand{
				OrderID:    o.ID,
				CustomerID: 999,
			})

			Expect(err).To(Equal(apperrors.ErrUnauthorizedAccess))
		})
	})

	Describe("payment events", func() {
		It("should ignore a late confirmation for a cancelled order", func() {
			o := seedOrder(payment.MethodVNPay, func(o *orderPkg.Order) {
				Expect(o.Cancel("customer gave up")).To(Succeed())
			})

			eventBus.Publish(ctx, events.NewPaymentProcessedEvent(o.ID, "TXN-9", o.TotalAmount, payment.MethodVNPay, ""))

			stored, _ := repo.GetByID(o.ID)
			Expect(stored.Status).To(Equal(orderPkg.StatusCancelled))
			Expect(stored.PaidAt).To(BeNil())
		})

		It("should confirm a pending order when the gateway callback lands", func() {
			o := seedOrder(payment.MethodVNPay, nil)

			eventBus.Publish(ctx, events.NewPaymentProcessedEvent(o.ID, "TXN-10", o.TotalAmount, payment.MethodVNPay, "NCB"))

			stored, _ := repo.GetByID(o.ID)
			Expect(stored.Status).To(Equal(orderPkg.StatusConfirmed))
			Expect(stored.PaidAt).NotTo(BeNil())
		})
	})
})

package payment_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/aims-commerce/internal/core/datamodel/payment"
	"github.com/frahmantamala/aims-commerce/internal/core/events"
	paymentpkg "github.com/frahmantamala/aims-commerce/internal/payment"
	"github.com/frahmantamala/aims-commerce/internal/transport"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

const callbackSecret = "XCVBNMASDFGHJKLQWERTYUIOP123456"

// buildCallback assembles the query parameters VNPay sends and signs them the
// way the gateway does. Tamper with the returned map after signing to test
// rejection paths.
func buildCallback(txnRef, amountMinor, responseCode string) map[string]string {
	params := map[string]string{
		"vnp_Amount":            amountMinor,
		"vnp_BankCode":          "NCB",
		"vnp_BankTranNo":        "VNP14444666",
		"vnp_CardType":          "ATM",
		"vnp_OrderInfo":         "Thanh toan don hang: 1001",
		"vnp_PayDate":           "20260825143022",
		"vnp_ResponseCode":      responseCode,
		"vnp_TmnCode":           "AIMSTEST",
		"vnp_TransactionNo":     "14444666",
		"vnp_TransactionStatus": responseCode,
		"vnp_TxnRef":            txnRef,
	}
	params["vnp_SecureHash"] = vnpay.HashAllFields(params, callbackSecret)
	return params
}

func callbackRequest(target string, params map[string]string) *http.Request {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return httptest.NewRequest("GET", target+"?"+values.Encode(), nil)
}

var _ = ginkgo.Describe("WebhookHandler", func() {
	var (
		handler  *paymentpkg.WebhookHandler
		repo     *mockTxnRepository
		store    *events.Store
		recorder *httptest.ResponseRecorder
	)

	seedInitiated := func(txnRef string) *payment.PaymentTransaction {
		txn := &payment.PaymentTransaction{
			ID:            1,
			OrderID:       "1001",
			TxnRef:        txnRef,
			Amount:        150000,
			Currency:      "VND",
			PaymentMethod: paymentpkg.MethodVNPay,
			Status:        paymentpkg.StatusInitiated,
			CreatedAt:     time.Now().Add(-10 * time.Minute),
		}
		repo.seed(txn)
		return txn
	}

	ginkgo.BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		validator := vnpay.NewGateway(vnpay.Config{
			TmnCode:    "AIMSTEST",
			HashSecret: callbackSecret,
			PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		}, logger)

		repo = newMockTxnRepository()
		store = events.NewStore()
		eventBus := events.NewEventBus(store, logger)
		handler = paymentpkg.NewWebhookHandler(transport.NewBaseHandler(logger), validator, repo, eventBus, logger)
		recorder = httptest.NewRecorder()
	})

	ginkgo.Context("HandleIPN", func() {
		ginkgo.When("the gateway confirms a successful payment", func() {
			ginkgo.It("should settle the transaction and publish a processed event", func() {
				txn := seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "00")
				req := callbackRequest("/api/v1/payment/vnpay/ipn", params)

				handler.HandleIPN(recorder, req)

				gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
				var resp paymentpkg.IPNResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.RspCode).To(gomega.Equal("00"))
				gomega.Expect(resp.Message).To(gomega.Equal("Confirm success"))

				gomega.Expect(txn.Status).To(gomega.Equal(paymentpkg.StatusSuccess))
				gomega.Expect(txn.PaidAt).ToNot(gomega.BeNil())
				gomega.Expect(txn.ResponseCode).ToNot(gomega.BeNil())
				gomega.Expect(*txn.ResponseCode).To(gomega.Equal("00"))
				gomega.Expect(txn.GatewayTransactionNo).ToNot(gomega.BeNil())
				gomega.Expect(*txn.GatewayTransactionNo).To(gomega.Equal("14444666"))
				gomega.Expect(txn.GatewayResponse).ToNot(gomega.BeEmpty())

				published := store.ByType(events.EventTypePaymentProcessed)
				gomega.Expect(published).To(gomega.HaveLen(1))
				event := published[0].(*events.PaymentProcessedEvent)
				gomega.Expect(event.OrderID).To(gomega.Equal(int64(1001)))
				gomega.Expect(event.TransactionID).To(gomega.Equal("100112345678"))
				gomega.Expect(event.Amount).To(gomega.Equal(int64(150000)))
				gomega.Expect(event.BankCode).To(gomega.Equal("NCB"))
			})
		})

		ginkgo.When("the customer cancelled at the gateway", func() {
			ginkgo.It("should record the failure and still acknowledge the callback", func() {
				txn := seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "24")
				req := callbackRequest("/api/v1/payment/vnpay/ipn", params)

				handler.HandleIPN(recorder, req)

				var resp paymentpkg.IPNResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.RspCode).To(gomega.Equal("00"))

				gomega.Expect(txn.Status).To(gomega.Equal(paymentpkg.StatusFailed))
				gomega.Expect(txn.FailureReason).ToNot(gomega.BeNil())
				gomega.Expect(*txn.FailureReason).To(gomega.Equal("customer cancelled transaction"))

				failed := store.ByType(events.EventTypePaymentFailed)
				gomega.Expect(failed).To(gomega.HaveLen(1))
				event := failed[0].(*events.PaymentFailedEvent)
				gomega.Expect(event.ResponseCode).To(gomega.Equal("24"))
				gomega.Expect(store.ByType(events.EventTypePaymentProcessed)).To(gomega.BeEmpty())
			})
		})

		ginkgo.When("the signature does not verify", func() {
			ginkgo.It("should reject with RspCode 97 and publish nothing", func() {
				txn := seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "00")
				params["vnp_Amount"] = "99900000"
				req := callbackRequest("/api/v1/payment/vnpay/ipn", params)

				handler.HandleIPN(recorder, req)

				var resp paymentpkg.IPNResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.RspCode).To(gomega.Equal("97"))

				gomega.Expect(txn.Status).To(gomega.Equal(paymentpkg.StatusInvalidSignature))
				gomega.Expect(store.Len()).To(gomega.BeZero())
			})

			ginkgo.It("should never overwrite a settled transaction", func() {
				txn := seedInitiated("100112345678")
				txn.Status = paymentpkg.StatusSuccess
				params := buildCallback("100112345678", "15000000", "00")
				params["vnp_SecureHash"] = "deadbeef"
				req := callbackRequest("/api/v1/payment/vnpay/ipn", params)

				handler.HandleIPN(recorder, req)

				var resp paymentpkg.IPNResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.RspCode).To(gomega.Equal("97"))
				gomega.Expect(txn.Status).To(gomega.Equal(paymentpkg.StatusSuccess))
			})
		})

		ginkgo.When("the transaction reference is unknown", func() {
			ginkgo.It("should answer RspCode 01", func() {
				params := buildCallback("555500000000", "15000000", "00")
				req := callbackRequest("/api/v1/payment/vnpay/ipn", params)

				handler.HandleIPN(recorder, req)

				var resp paymentpkg.IPNResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.RspCode).To(gomega.Equal("01"))
			})
		})

		ginkgo.When("the amount does not match", func() {
			ginkgo.It("should answer RspCode 04 and leave the transaction alone", func() {
				txn := seedInitiated("100112345678")
				params := buildCallback("100112345678", "14000000", "00")
				req := callbackRequest("/api/v1/payment/vnpay/ipn", params)

				handler.HandleIPN(recorder, req)

				var resp paymentpkg.IPNResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.RspCode).To(gomega.Equal("04"))
				gomega.Expect(txn.Status).To(gomega.Equal(paymentpkg.StatusInitiated))
				gomega.Expect(store.Len()).To(gomega.BeZero())
			})
		})

		ginkgo.When("the gateway retries an already processed callback", func() {
			ginkgo.It("should answer RspCode 02 and publish no second event", func() {
				seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "00")

				handler.HandleIPN(recorder, callbackRequest("/api/v1/payment/vnpay/ipn", params))
				gomega.Expect(store.Len()).To(gomega.Equal(1))

				replay := httptest.NewRecorder()
				handler.HandleIPN(replay, callbackRequest("/api/v1/payment/vnpay/ipn", params))

				var resp paymentpkg.IPNResponse
				gomega.Expect(json.Unmarshal(replay.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.RspCode).To(gomega.Equal("02"))
				gomega.Expect(resp.Message).To(gomega.Equal("Order already confirmed"))
				gomega.Expect(store.Len()).To(gomega.Equal(1))
			})
		})
	})

	ginkgo.Context("HandleReturn", func() {
		ginkgo.When("the customer lands back before the IPN", func() {
			ginkgo.It("should process the callback and render the outcome", func() {
				txn := seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "00")
				req := callbackRequest("/api/v1/payment/vnpay/return", params)

				handler.HandleReturn(recorder, req)

				gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
				var resp paymentpkg.ReturnResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.OrderID).To(gomega.Equal("1001"))
				gomega.Expect(resp.Success).To(gomega.BeTrue())
				gomega.Expect(resp.Message).To(gomega.Equal("transaction successful"))

				gomega.Expect(txn.Status).To(gomega.Equal(paymentpkg.StatusSuccess))
				gomega.Expect(store.ByType(events.EventTypePaymentProcessed)).To(gomega.HaveLen(1))
			})
		})

		ginkgo.When("the IPN already settled the transaction", func() {
			ginkgo.It("should render the stored outcome without publishing again", func() {
				seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "00")
				handler.HandleIPN(httptest.NewRecorder(), callbackRequest("/api/v1/payment/vnpay/ipn", params))

				handler.HandleReturn(recorder, callbackRequest("/api/v1/payment/vnpay/return", params))

				gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
				var resp paymentpkg.ReturnResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.Success).To(gomega.BeTrue())
				gomega.Expect(store.Len()).To(gomega.Equal(1))
			})
		})

		ginkgo.When("the payment failed", func() {
			ginkgo.It("should render the mapped failure message", func() {
				seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "51")
				req := callbackRequest("/api/v1/payment/vnpay/return", params)

				handler.HandleReturn(recorder, req)

				gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
				var resp paymentpkg.ReturnResponse
				gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
				gomega.Expect(resp.Success).To(gomega.BeFalse())
				gomega.Expect(resp.Message).To(gomega.Equal("insufficient funds"))
			})
		})

		ginkgo.When("the signature does not verify", func() {
			ginkgo.It("should return bad request", func() {
				seedInitiated("100112345678")
				params := buildCallback("100112345678", "15000000", "00")
				params["vnp_SecureHash"] = "deadbeef"
				req := callbackRequest("/api/v1/payment/vnpay/return", params)

				handler.HandleReturn(recorder, req)

				gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
			})
		})

		ginkgo.When("the transaction is unknown", func() {
			ginkgo.It("should return not found", func() {
				params := buildCallback("555500000000", "15000000", "00")
				req := callbackRequest("/api/v1/payment/vnpay/return", params)

				handler.HandleReturn(recorder, req)

				gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
			})
		})
	})
})

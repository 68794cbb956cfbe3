package vnpay_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

func TestVNPayGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "VNPay Gateway Suite")
}

const (
	testTmnCode = "DEMOV210"
	testSecret  = "RAOEXHYVSDDIIENYWSLDIIZTANXUXZFJ"
)

func newTestGateway(apiURL string) *vnpay.Gateway {
	logger := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return vnpay.NewGateway(vnpay.Config{
		TmnCode:        testTmnCode,
		HashSecret:     testSecret,
		PayURL:         "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		APIURL:         apiURL,
		ReturnURL:      "https://shop.example.com/api/v1/payment/vnpay/return",
		Version:        "2.1.0",
		TimeoutMinutes: 15,
		HTTPTimeout:    2 * time.Second,
		MaxRetries:     1,
	}, logger)
}

func queryParams(rawURL string) map[string]string {
	parsed, err := url.Parse(rawURL)
	Expect(err).NotTo(HaveOccurred())
	params := make(map[string]string)
	for k := range parsed.Query() {
		params[k] = parsed.Query().Get(k)
	}
	return params
}

func signParams(params map[string]string) map[string]string {
	signed := make(map[string]string, len(params)+1)
	for k, v := range params {
		signed[k] = v
	}
	signed["vnp_SecureHash"] = vnpay.HashAllFields(params, testSecret)
	return signed
}

var _ = Describe("Gateway", func() {
	var gw *vnpay.Gateway

	BeforeEach(func() {
		gw = newTestGateway("https://sandbox.vnpayment.vn/merchant_webapi/api/transaction")
	})

	Describe("CreatePaymentURL", func() {
		It("should build a URL whose signature verifies against the decoded params", func() {
			// Given
			result, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID:  "ORDER123",
				Amount:   100000,
				ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())

			// When
			params := queryParams(result.PaymentURL)

			// Then
			Expect(gw.ValidateCallback(params)).To(BeTrue())
		})

		It("should transmit the amount multiplied by 100", func() {
			result, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID:  "ORDER123",
				Amount:   100000,
				ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())

			params := queryParams(result.PaymentURL)
			Expect(params["vnp_Amount"]).To(Equal("10000000"))
			Expect(params["vnp_CurrCode"]).To(Equal("VND"))
		})

		It("should prefix the transaction ref with the order id", func() {
			result, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID:  "ORDER123",
				Amount:   50000,
				ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())

			params := queryParams(result.PaymentURL)
			Expect(params["vnp_TxnRef"]).To(Equal(result.TxnRef))
			Expect(result.TxnRef).To(HavePrefix("ORDER123"))
		})

		It("should omit vnp_BankCode when no bank was preselected", func() {
			result, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID:  "ORDER123",
				Amount:   50000,
				ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.PaymentURL).NotTo(ContainSubstring("vnp_BankCode"))
		})

		It("should carry vnp_BankCode when the customer chose a bank", func() {
			result, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID:  "ORDER123",
				Amount:   50000,
				BankCode: "NCB",
				ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())

			params := queryParams(result.PaymentURL)
			Expect(params["vnp_BankCode"]).To(Equal("NCB"))
			Expect(gw.ValidateCallback(params)).To(BeTrue())
		})

		It("should default the locale to vn and honor an explicit en", func() {
			byDefault, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID: "ORDER123", Amount: 50000, ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())
			english, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID: "ORDER123", Amount: 50000, Locale: "en", ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(queryParams(byDefault.PaymentURL)["vnp_Locale"]).To(Equal("vn"))
			Expect(queryParams(english.PaymentURL)["vnp_Locale"]).To(Equal("en"))
		})

		It("should set the expiry the configured minutes after creation", func() {
			result, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID: "ORDER123", Amount: 50000, ClientIP: "192.168.1.10",
			})
			Expect(err).NotTo(HaveOccurred())

			params := queryParams(result.PaymentURL)
			created, err := time.Parse("20060102150405", params["vnp_CreateDate"])
			Expect(err).NotTo(HaveOccurred())
			expires, err := time.Parse("20060102150405", params["vnp_ExpireDate"])
			Expect(err).NotTo(HaveOccurred())

			Expect(expires.Sub(created)).To(Equal(15 * time.Minute))
		})

		It("should reject a non-positive amount", func() {
			_, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				OrderID: "ORDER123", Amount: 0, ClientIP: "192.168.1.10",
			})

			Expect(err).To(HaveOccurred())
		})

		It("should reject a missing order id", func() {
			_, err := gw.CreatePaymentURL(vnpay.PaymentURLRequest{
				Amount: 50000, ClientIP: "192.168.1.10",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidateCallback", func() {
		var callback map[string]string

		BeforeEach(func() {
			callback = signParams(map[string]string{
				"vnp_Amount":            "10000000",
				"vnp_BankCode":          "NCB",
				"vnp_ResponseCode":      "00",
				"vnp_TmnCode":           testTmnCode,
				"vnp_TransactionNo":     "14226112",
				"vnp_TransactionStatus": "00",
				"vnp_TxnRef":            "ORDER12345678901",
			})
		})

		It("should accept a correctly signed callback", func() {
			Expect(gw.ValidateCallback(callback)).To(BeTrue())
		})

		It("should reject a callback with a tampered amount", func() {
			callback["vnp_Amount"] = "1"

			Expect(gw.ValidateCallback(callback)).To(BeFalse())
		})

		It("should reject a callback without a signature", func() {
			delete(callback, "vnp_SecureHash")

			Expect(gw.ValidateCallback(callback)).To(BeFalse())
		})

		It("should reject a signature produced with a different secret", func() {
			callback["vnp_SecureHash"] = vnpay.HashAllFields(map[string]string{
				"vnp_Amount": callback["vnp_Amount"],
			}, "WRONGSECRET")

			Expect(gw.ValidateCallback(callback)).To(BeFalse())
		})

		It("should leave vnp_SecureHashType out of the hash input", func() {
			callback["vnp_SecureHashType"] = "HmacSHA512"

			Expect(gw.ValidateCallback(callback)).To(BeTrue())
		})

		It("should tolerate uppercase hex signatures", func() {
			callback["vnp_SecureHash"] = strings.ToUpper(callback["vnp_SecureHash"])

			Expect(gw.ValidateCallback(callback)).To(BeTrue())
		})
	})

	Describe("QueryTransaction", func() {
		var server *httptest.Server
		var received map[string]string

		BeforeEach(func() {
			received = nil
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"vnp_ResponseCode":      "00",
					"vnp_Message":           "Query successful",
					"vnp_TransactionNo":     "14226112",
					"vnp_TransactionStatus": "00",
					"vnp_Amount":            "10000000",
				})
			}))
			gw = newTestGateway(server.URL)
		})

		AfterEach(func() {
			server.Close()
		})

		It("should post a signed query and parse the response", func() {
			// When
			result, err := gw.QueryTransaction(context.Background(), vnpay.QueryRequest{
				TxnRef:          "ORDER12312345678",
				TransactionDate: "20260815103000",
			})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ResponseCode).To(Equal("00"))
			Expect(result.TransactionNo).To(Equal("14226112"))
			Expect(result.Amount).To(Equal(int64(100000)))

			Expect(received["vnp_Command"]).To(Equal("querydr"))
			Expect(received["vnp_TmnCode"]).To(Equal(testTmnCode))

			sig := received["vnp_SecureHash"]
			fields := make(map[string]string, len(received))
			for k, v := range received {
				if k == "vnp_SecureHash" {
					continue
				}
				fields[k] = v
			}
			Expect(sig).To(Equal(vnpay.HashAllFields(fields, testSecret)))
		})

		It("should reject an empty txn ref without calling the gateway", func() {
			_, err := gw.QueryTransaction(context.Background(), vnpay.QueryRequest{})

			Expect(err).To(HaveOccurred())
			Expect(received).To(BeNil())
		})
	})

	Describe("Refund", func() {
		var server *httptest.Server
		var received map[string]string

		BeforeEach(func() {
			received = nil
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"vnp_ResponseCode":  "00",
					"vnp_Message":       "Refund successful",
					"vnp_TransactionNo": "14226113",
				})
			}))
			gw = newTestGateway(server.URL)
		})

		AfterEach(func() {
			server.Close()
		})

		It("should post a signed full refund with the amount in minor units", func() {
			// When
			result, err := gw.Refund(context.Background(), vnpay.RefundCall{
				TxnRef:          "ORDER12312345678",
				Amount:          100000,
				TransactionNo:   "14226112",
				TransactionDate: "20260815103000",
				CreatedBy:       "system",
			})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ResponseCode).To(Equal("00"))

			Expect(received["vnp_Command"]).To(Equal("refund"))
			Expect(received["vnp_TransactionType"]).To(Equal("02"))
			Expect(received["vnp_Amount"]).To(Equal("10000000"))

			sig := received["vnp_SecureHash"]
			fields := make(map[string]string, len(received))
			for k, v := range received {
				if k == "vnp_SecureHash" {
					continue
				}
				fields[k] = v
			}
			Expect(sig).To(Equal(vnpay.HashAllFields(fields, testSecret)))
		})

		It("should surface persistent gateway failures as errors", func() {
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer failing.Close()
			gw = newTestGateway(failing.URL)

			_, err := gw.Refund(context.Background(), vnpay.RefundCall{
				TxnRef: "ORDER12312345678",
				Amount: 100000,
			})

			Expect(err).To(HaveOccurred())
		})

		It("should reject a non-positive refund amount", func() {
			_, err := gw.Refund(context.Background(), vnpay.RefundCall{
				TxnRef: "ORDER12312345678",
				Amount: 0,
			})

			Expect(err).To(HaveOccurred())
			Expect(received).To(BeNil())
		})
	})
})

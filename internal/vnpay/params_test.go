package vnpay_test

import (
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

var _ = Describe("ClientIP", func() {
	It("should prefer X-Forwarded-For over every other source", func() {
		r := httptest.NewRequest("GET", "/payment/vnpay/return", nil)
		r.RemoteAddr = "10.0.0.1:52000"
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		r.Header.Set("Proxy-Client-IP", "198.51.100.2")

		Expect(vnpay.ClientIP(r)).To(Equal("203.0.113.7"))
	})

	It("should keep only the first entry of a comma separated header", func() {
		r := httptest.NewRequest("GET", "/payment/vnpay/return", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.2, 10.0.0.1")

		Expect(vnpay.ClientIP(r)).To(Equal("203.0.113.7"))
	})

	It("should skip headers holding the literal unknown", func() {
		r := httptest.NewRequest("GET", "/payment/vnpay/return", nil)
		r.Header.Set("X-Forwarded-For", "unknown")
		r.Header.Set("Proxy-Client-IP", "198.51.100.2")

		Expect(vnpay.ClientIP(r)).To(Equal("198.51.100.2"))
	})

	It("should consult the proxy headers in priority order", func() {
		r := httptest.NewRequest("GET", "/payment/vnpay/return", nil)
		r.Header.Set("HTTP_CLIENT_IP", "192.0.2.44")
		r.Header.Set("WL-Proxy-Client-IP", "198.51.100.9")

		Expect(vnpay.ClientIP(r)).To(Equal("198.51.100.9"))
	})

	It("should fall back to the remote address without its port", func() {
		r := httptest.NewRequest("GET", "/payment/vnpay/return", nil)
		r.RemoteAddr = "10.0.0.1:52000"

		Expect(vnpay.ClientIP(r)).To(Equal("10.0.0.1"))
	})
})

var _ = Describe("NewTxnRef", func() {
	It("should keep the order id as prefix and append a numeric suffix", func() {
		ref := vnpay.NewTxnRef("ORDER123")

		Expect(ref).To(HavePrefix("ORDER123"))
		suffix := strings.TrimPrefix(ref, "ORDER123")
		Expect(suffix).To(HaveLen(8))
		Expect(suffix).To(MatchRegexp(`^[0-9]+$`))
	})

	It("should generate distinct refs for repeated payments of one order", func() {
		refs := map[string]bool{}
		for i := 0; i < 10; i++ {
			refs[vnpay.NewTxnRef("42")] = true
		}

		Expect(len(refs)).To(BeNumerically(">", 1))
	})
})

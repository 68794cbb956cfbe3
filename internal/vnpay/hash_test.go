package vnpay_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/aims-commerce/internal/vnpay"
)

var _ = Describe("HmacSHA512", func() {
	const secret = "DEMOSECRETKEY1234567890"

	It("should return lowercase hex of fixed length", func() {
		sig := vnpay.HmacSHA512(secret, "vnp_Amount=10000000")

		Expect(sig).To(HaveLen(128))
		Expect(sig).To(MatchRegexp(`^[0-9a-f]+$`))
	})

	It("should be deterministic", func() {
		first := vnpay.HmacSHA512(secret, "some payload")
		second := vnpay.HmacSHA512(secret, "some payload")

		Expect(first).To(Equal(second))
	})

	It("should return empty string when the key is missing", func() {
		Expect(vnpay.HmacSHA512("", "payload")).To(BeEmpty())
	})

	It("should return empty string when the payload is missing", func() {
		Expect(vnpay.HmacSHA512(secret, "")).To(BeEmpty())
	})
})

var _ = Describe("HashAllFields", func() {
	const secret = "DEMOSECRETKEY1234567890"

	It("should hash fields sorted lexicographically as key=value pairs", func() {
		// Given
		fields := map[string]string{
			"vnp_TmnCode": "DEMOV210",
			"vnp_Amount":  "10000000",
			"vnp_Command": "pay",
		}

		// When
		sig := vnpay.HashAllFields(fields, secret)

		// Then
		expected := vnpay.HmacSHA512(secret, "vnp_Amount=10000000&vnp_Command=pay&vnp_TmnCode=DEMOV210")
		Expect(sig).To(Equal(expected))
	})

	It("should exclude fields with empty values from the hash input", func() {
		// Given
		withEmpty := map[string]string{
			"vnp_Amount":   "10000000",
			"vnp_BankCode": "",
			"vnp_Command":  "pay",
		}
		withoutEmpty := map[string]string{
			"vnp_Amount":  "10000000",
			"vnp_Command": "pay",
		}

		// Then
		Expect(vnpay.HashAllFields(withEmpty, secret)).To(Equal(vnpay.HashAllFields(withoutEmpty, secret)))
	})

	It("should change when any field value changes", func() {
		fields := map[string]string{"vnp_Amount": "10000000", "vnp_TxnRef": "ORDER1234567"}
		tampered := map[string]string{"vnp_Amount": "99900000", "vnp_TxnRef": "ORDER1234567"}

		Expect(vnpay.HashAllFields(fields, secret)).NotTo(Equal(vnpay.HashAllFields(tampered, secret)))
	})

	It("should change when the secret changes", func() {
		fields := map[string]string{"vnp_Amount": "10000000"}

		Expect(vnpay.HashAllFields(fields, secret)).NotTo(Equal(vnpay.HashAllFields(fields, "othersecret")))
	})

	It("should return empty string when the secret is empty", func() {
		fields := map[string]string{"vnp_Amount": "10000000"}

		Expect(vnpay.HashAllFields(fields, "")).To(BeEmpty())
	})
})

var _ = Describe("VerifySignature", func() {
	const secret = "DEMOSECRETKEY1234567890"

	fields := map[string]string{
		"vnp_Amount": "10000000",
		"vnp_TxnRef": "ORDER1234567",
	}

	It("should accept the signature produced by HashAllFields", func() {
		sig := vnpay.HashAllFields(fields, secret)

		Expect(vnpay.VerifySignature(fields, secret, sig)).To(BeTrue())
	})

	It("should accept an uppercase rendering of a valid signature", func() {
		sig := strings.ToUpper(vnpay.HashAllFields(fields, secret))

		Expect(vnpay.VerifySignature(fields, secret, sig)).To(BeTrue())
	})

	It("should reject a signature computed with a different secret", func() {
		sig := vnpay.HashAllFields(fields, "othersecret")

		Expect(vnpay.VerifySignature(fields, secret, sig)).To(BeFalse())
	})

	It("should reject an empty received signature", func() {
		Expect(vnpay.VerifySignature(fields, secret, "")).To(BeFalse())
	})

	It("should reject everything when the secret is empty", func() {
		sig := vnpay.HashAllFields(fields, secret)

		Expect(vnpay.VerifySignature(fields, "", sig)).To(BeFalse())
	})
})

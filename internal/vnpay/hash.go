package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"strings"
)

// HmacSHA512 signs data with the merchant hash secret and returns lowercase
// hex. A missing key or payload yields the empty string, which callers treat
// as a failed verification instead of an error.
func HmacSHA512(key, data string) string {
	if key == "" || data == "" {
		return ""
	}
	mac := hmac.New(sha512.New, []byte(key))
	if _, err := mac.Write([]byte(data)); err != nil {
		return ""
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// HashAllFields builds the canonical signature input: keys sorted
// lexicographically, fields with empty values dropped, pairs joined as
// key=value with & between them. The hash covers raw field values; URL
// encoding applies only to the transmitted query string.
func HashAllFields(fields map[string]string, secret string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fields[k])
	}
	return HmacSHA512(secret, sb.String())
}

// VerifySignature recomputes the canonical hash over fields and compares it
// in constant time against the received signature. An empty received or
// computed value is a verification failure, never a match. The gateway mixes
// hex casing between flows, so the received value is normalized first.
func VerifySignature(fields map[string]string, secret, received string) bool {
	if received == "" {
		return false
	}
	expected := HashAllFields(fields, secret)
	if expected == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

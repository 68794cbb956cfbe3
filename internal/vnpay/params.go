package vnpay

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// dateFormat is the gateway's timestamp layout, always rendered in
// Asia/Ho_Chi_Minh local time.
const dateFormat = "20060102150405"

var gatewayLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}()

// FormatDate renders a timestamp in the gateway's date layout and timezone.
func FormatDate(t time.Time) string {
	return t.In(gatewayLocation).Format(dateFormat)
}

// Proxy headers checked in priority order for the originating client address.
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_CLIENT_IP",
	"HTTP_X_FORWARDED_FOR",
}

// ClientIP extracts the caller's address for the vnp_IpAddr field. Headers
// are consulted in priority order, a comma-separated value keeps only its
// first entry, and the literal "unknown" is skipped. Falls back to the
// connection's remote address.
func ClientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		v := r.Header.Get(h)
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		if idx := strings.Index(v, ","); idx >= 0 {
			v = v[:idx]
		}
		return strings.TrimSpace(v)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// NewTxnRef builds the gateway transaction reference from the order
// identifier plus a random numeric suffix, so retried payments for the same
// order never collide at the gateway.
func NewTxnRef(orderID string) string {
	return fmt.Sprintf("%s%08d", orderID, rand.Intn(100000000))
}

// encodeQuery renders the sorted, URL-encoded query string. Fields with
// empty values are dropped, mirroring the signature input.
func encodeQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
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
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

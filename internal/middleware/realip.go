// AngelaMos | 2026
// realip.go

package middleware

import (
	"net"
	"net/http"
	"strings"
)

// TrustProxy replaces RemoteAddr with the client address reported by the
// reverse proxy in front of the service. It takes the last X-Forwarded-For
// hop, which is the one the nearest proxy appended, then X-Real-IP. Only
// mount it when every request arrives through such a proxy.
func TrustProxy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := forwardedIP(r.Header); ip != "" {
			r.RemoteAddr = net.JoinHostPort(ip, "0")
		}
		next.ServeHTTP(w, r)
	})
}

func forwardedIP(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(hops[len(hops)-1])); ip != nil {
			return ip.String()
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(h.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return ""
}

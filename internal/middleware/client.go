package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// UnknownClient is the shared identifier for requests that carry no client
// address headers.
const UnknownClient = "unknown"

// ClientID identifies the submitter for rate limiting: the first hop of
// X-Forwarded-For, then X-Real-IP, else UnknownClient.  The service runs
// behind a proxy that sets these headers; RemoteAddr would be the proxy.
func ClientID(r *http.Request) string {
	if xff := r.Header.Get(echo.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(echo.HeaderXRealIP)); ip != "" {
		return ip
	}
	return UnknownClient
}

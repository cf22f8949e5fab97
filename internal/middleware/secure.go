package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders adds the standard security headers. Development mode skips
// the host and SSL checks.
func SecureHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		IsDevelopment:         isDevelopment,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; img-src 'self' data:",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	})
	return s.Handler
}

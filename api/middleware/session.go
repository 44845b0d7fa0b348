package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// SessionIDHeader carries the browsing session id in both directions.
const SessionIDHeader = "X-Session-Id"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// Session resolves the browsing session id from the request header, minting
// a new one when it is absent or malformed, and echoes it on the response.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := r.Header.Get(SessionIDHeader)
			if !sessionIDPattern.MatchString(sid) {
				sid = uuid.NewString()
			}

			w.Header().Set(SessionIDHeader, sid)

			ctx := WithSessionID(r.Context(), sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

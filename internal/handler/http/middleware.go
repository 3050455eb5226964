package http

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/foodieexpress/storefront/pkg/httputil"
	"github.com/foodieexpress/storefront/pkg/logger"
)

// SessionHeader carries the storefront session identifier.
const SessionHeader = "X-Session-ID"

const maxSessionIDLen = 128

// SessionID reads the X-Session-ID header, minting a new id when the client
// has none, and echoes it on the response so the client can keep using it.
func SessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(SessionHeader))
		if len(sid) > maxSessionIDLen {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Session-ID is too long"},
			})
			return
		}

		ctx := r.Context()
		if sid == "" {
			sid = uuid.NewString()
			// RequestLogger only saw the (missing) header.
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("session_id", sid)))
		}
		ctx = logger.WithSessionID(ctx, sid)

		w.Header().Set(SessionHeader, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionIDFromRequest(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}

// ContentTypeJSON rejects requests that carry a body unless it is declared
// as application/json. A missing Content-Type is rejected too. Bodiless
// requests pass whatever their method.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r) {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// hasBody reports whether r has a body. Chunked requests report an unknown
// length of -1.
func hasBody(r *http.Request) bool {
	if r.ContentLength > 0 {
		return true
	}
	return r.ContentLength < 0 && r.Body != nil && r.Body != http.NoBody
}

package middleware

import (
	"net/http"

	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const AdminTokenHeader = "X-INTERVALTIMER-TOKEN"

// AdminToken guards write routes with a token checked against a bcrypt hash.
// With an empty hash every guarded request is refused.
func AdminToken(tokenHash string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.admin")
			defer span.End()

			if r.Method == http.MethodOptions {
				span.SetStatus(codes.Ok, "options-ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get(AdminTokenHeader)
			if authToken == "" {
				log.Tracef("[missing token] [admin middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			if !pkg.CheckTokenHash(authToken, tokenHash) {
				reqIp, _ := pkg.ReadUserIP(r)
				log.Warnf("[invalid token] [admin middleware] %s %s from %s", r.Method, r.URL.Path, reqIp)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/bangsu-tech/estimate-api/internal/auth"
	"go.uber.org/zap"
)

// OrgScope enforces tenant isolation: every request past this point must
// carry an org scope in its user context. Handlers read the org ID via
// auth.OrgIDFromContext and repositories filter by it.
func OrgScope(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.OrgIDFromContext(r.Context()); !ok {
				logger.Warn("request without org scope rejected",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "Forbidden: no organization scope", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/dhanush-hc/hrms-backend-go/internal/handler/http/response"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/jwt"
)

// ReviewerOnly restricts a route group to roles that may decide approvals.
func ReviewerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := jwt.ClaimsFromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}
		if !claims.IsReviewer() {
			response.Forbidden(w, "Reviewer role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// PermissionChecker decides whether a role holds a permission.
type PermissionChecker interface {
	Allowed(role user.Role, permission user.Permission) (bool, error)
}

// HasPermission checks the role claim of the request's token. A missing or
// malformed role is reported as not allowed.
func HasPermission(r *http.Request, checker PermissionChecker, permission user.Permission) (user.Role, bool, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false, nil
	}

	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", false, nil
	}

	role := user.Role(roleStr)
	allowed, err := checker.Allowed(role, permission)
	if err != nil {
		return role, false, err
	}
	return role, allowed, nil
}

// RequirePermission checks the token's role against the policy
func RequirePermission(checker PermissionChecker, permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !CheckPermission(w, r, checker, permission) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CheckPermission writes the error response and returns false when the
// request's role lacks permission.
func CheckPermission(w http.ResponseWriter, r *http.Request, checker PermissionChecker, permission user.Permission) bool {
	role, allowed, err := HasPermission(r, checker, permission)
	if err != nil {
		slog.ErrorContext(r.Context(), "Permission check failed", "role", role, "permission", permission, "error", err)
		response.InternalServerError(w, "An unexpected error occurred")
		return false
	}
	if !allowed {
		if role == "" {
			response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
		} else {
			response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, role))
		}
		return false
	}
	return true
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventos-api/internal/service"
)

// RequireRole rejects requests whose role claim (set by JWTAuth) is not in
// roles.  It must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return service.ErrForbidden
			}
			return next(c)
		}
	}
}

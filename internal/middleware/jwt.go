package middleware // package middleware holds Echo middleware shared by the route groups

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventos-api/internal/service"
	"github.com/iliyamo/eventos-api/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// JWTAuth validates a Bearer access token and injects its claims into the
// Echo context under CtxUserID (uint64), CtxUsername and CtxRole.  The user
// id is also attached to the request context for the service layer.
// Refresh tokens are rejected here.
func JWTAuth(tokens *utils.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := tokens.ParseAccessToken(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxUsername, claims.Subject)
			c.Set(CtxRole, claims.Role)
			req := c.Request()
			c.SetRequest(req.WithContext(service.WithActor(req.Context(), claims.UserID)))
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(CtxUserID).(uint64)
	return id
}

// Username returns the authenticated username, or "".
func Username(c echo.Context) string {
	name, _ := c.Get(CtxUsername).(string)
	return name
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bitshare/bitshare-api/internal/domain"
	"github.com/bitshare/bitshare-api/internal/service"
	"github.com/bitshare/bitshare-api/internal/util"
)

const contextUserKey = "auth.user"

// RequireAuth resolves the session user from the auth cookies. When the
// access token has lapsed but the refresh token still verifies, a fresh pair
// is minted and re-set on the response before the request proceeds.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			access := cookieValue(c, authTokenCookie)
			refresh := cookieValue(c, refreshTokenCookie)
			if access == "" && refresh == "" {
				return c.JSON(http.StatusUnauthorized, util.Failure(http.StatusUnauthorized, "authentication required"))
			}

			user, rotated, err := auth.Authenticate(c.Request().Context(), access, refresh)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Failure(http.StatusUnauthorized, "invalid or expired session"))
			}
			if rotated != nil {
				setAuthCookies(c, rotated)
			}
			c.Set(contextUserKey, user)
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(contextUserKey).(*domain.User)
	return user, ok
}

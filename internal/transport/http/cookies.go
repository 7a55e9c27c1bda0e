package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bitshare/bitshare-api/internal/util"
)

const (
	authTokenCookie    = "authToken"
	refreshTokenCookie = "refreshToken"
)

func setAuthCookies(c echo.Context, pair *util.TokenPair) {
	c.SetCookie(sessionCookie(authTokenCookie, pair.AccessToken, pair.AccessExpiresAt))
	c.SetCookie(sessionCookie(refreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt))
}

func clearAuthCookies(c echo.Context) {
	expired := time.Unix(0, 0)
	c.SetCookie(sessionCookie(authTokenCookie, "", expired))
	c.SetCookie(sessionCookie(refreshTokenCookie, "", expired))
}

func sessionCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

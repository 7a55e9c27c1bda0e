package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bitshare/bitshare-api/internal/service"
	"github.com/bitshare/bitshare-api/internal/util"
)

type AuthHandler struct {
	auth *service.AuthService
	otps *service.OTPService
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, otps *service.OTPService) {
	handler := &AuthHandler{auth: auth, otps: otps}

	e.POST("/sendotp", handler.sendOTP)
	e.POST("/register", handler.register)
	e.POST("/login", handler.login)
	e.POST("/google", handler.loginWithGoogle)
	e.POST("/changepassword", handler.changePassword)

	e.GET("/checklogin", handler.checkLogin, RequireAuth(auth))
	e.GET("/getuser", handler.getUser, RequireAuth(auth))
	e.GET("/logout", handler.logout, RequireAuth(auth))
}

// sendOTP godoc
// @Summary Send a one-time code to an email address
// @Accept json
// @Produce json
// @Router /sendotp [post]
func (h *AuthHandler) sendOTP(c echo.Context) error {
	var req SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, "invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, validationMessage(errs)))
	}

	if err := h.otps.Issue(c.Request().Context(), req.Email); err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "OTP sent successfully", nil))
}

// register godoc
// @Summary Register a user with an OTP-verified email
// @Accept json
// @Produce json
// @Router /register [post]
func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, "invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, validationMessage(errs)))
	}

	user, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.OTP, req.ProfilePic)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "registered successfully", echo.Map{"user": user}))
}

// login godoc
// @Summary Log in with email and password
// @Accept json
// @Produce json
// @Router /login [post]
func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, "invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, validationMessage(errs)))
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	setAuthCookies(c, result.Tokens)
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "Logged in successfully", echo.Map{
		"user":         result.User,
		"authToken":    result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	}))
}

// loginWithGoogle godoc
// @Summary Log in with a Google ID token
// @Accept json
// @Produce json
// @Router /google [post]
func (h *AuthHandler) loginWithGoogle(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, "invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, validationMessage(errs)))
	}

	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	setAuthCookies(c, result.Tokens)
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "Logged in successfully", echo.Map{
		"user":         result.User,
		"authToken":    result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	}))
}

// changePassword godoc
// @Summary Change the password after OTP verification
// @Accept json
// @Produce json
// @Router /changepassword [post]
func (h *AuthHandler) changePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, "invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, validationMessage(errs)))
	}

	if err := h.auth.ChangePassword(c.Request().Context(), req.Email, req.OTP, req.Password); err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "Password changed successfully", nil))
}

// checkLogin godoc
// @Summary Check the current session
// @Produce json
// @Router /checklogin [get]
func (h *AuthHandler) checkLogin(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Failure(http.StatusUnauthorized, "authentication required"))
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "Logged in", echo.Map{"userId": user.ID}))
}

// getUser godoc
// @Summary Fetch the session user's profile
// @Produce json
// @Router /getuser [get]
func (h *AuthHandler) getUser(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Failure(http.StatusUnauthorized, "authentication required"))
	}
	profile, err := h.auth.GetUser(c.Request().Context(), user.ID)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "User found", echo.Map{"user": profile}))
}

// logout godoc
// @Summary Clear the session cookies
// @Produce json
// @Router /logout [get]
func (h *AuthHandler) logout(c echo.Context) error {
	clearAuthCookies(c)
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "Logged out successfully", nil))
}

// writeAuthError maps service sentinels to the response envelope. Internal
// faults are logged and reported generically, never echoed to the client.
func (h *AuthHandler) writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrOTPNotRequested),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, err.Error()))
	case errors.Is(err, service.ErrInvalidGoogleToken),
		errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, util.Failure(http.StatusUnauthorized, err.Error()))
	case errors.Is(err, service.ErrOTPDeliveryFailed):
		c.Logger().Errorf("otp delivery: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Failure(http.StatusInternalServerError, service.ErrOTPDeliveryFailed.Error()))
	default:
		c.Logger().Errorf("auth: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Failure(http.StatusInternalServerError, "internal server error"))
	}
}

package http

import (
	"strings"

	"github.com/bitshare/bitshare-api/internal/util"
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func requiredField(errs []FieldError, field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		errs = append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	return errs
}

// SendOTPRequest carries the send-OTP payload.
type SendOTPRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

func (r SendOTPRequest) Validate() []FieldError {
	return requiredField(nil, "email", r.Email)
}

// RegisterRequest carries the registration payload.
type RegisterRequest struct {
	Name       string  `json:"name" example:"Ada"`
	Email      string  `json:"email" example:"user@example.com"`
	Password   string  `json:"password" example:"secret1"`
	OTP        string  `json:"otp" example:"123456"`
	ProfilePic *string `json:"profilePic,omitempty"`
}

func (r RegisterRequest) Validate() []FieldError {
	errs := requiredField(nil, "name", r.Name)
	errs = requiredField(errs, "email", r.Email)
	errs = requiredField(errs, "password", r.Password)
	errs = requiredField(errs, "otp", r.OTP)
	if r.Password != "" {
		if err := util.ValidatePassword(r.Password); err != nil {
			errs = append(errs, FieldError{Field: "password", Message: err.Error()})
		}
	}
	return errs
}

// LoginRequest carries the login payload.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"secret1"`
}

func (r LoginRequest) Validate() []FieldError {
	errs := requiredField(nil, "email", r.Email)
	return requiredField(errs, "password", r.Password)
}

// GoogleLoginRequest carries the Google ID token.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

func (r GoogleLoginRequest) Validate() []FieldError {
	return requiredField(nil, "idToken", r.IDToken)
}

// ChangePasswordRequest carries the OTP-gated password change payload.
type ChangePasswordRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	OTP      string `json:"otp" example:"123456"`
	Password string `json:"password" example:"new-secret"`
}

func (r ChangePasswordRequest) Validate() []FieldError {
	errs := requiredField(nil, "email", r.Email)
	errs = requiredField(errs, "otp", r.OTP)
	errs = requiredField(errs, "password", r.Password)
	if r.Password != "" {
		if err := util.ValidatePassword(r.Password); err != nil {
			errs = append(errs, FieldError{Field: "password", Message: err.Error()})
		}
	}
	return errs
}

func validationMessage(errs []FieldError) string {
	if len(errs) == 1 {
		return errs[0].Message
	}
	return "all fields are required"
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitshare/bitshare-api/internal/domain"
	"github.com/bitshare/bitshare-api/internal/repository/ports"
	"github.com/bitshare/bitshare-api/internal/util"
)

var (
	ErrEmailRequired     = errors.New("email is required")
	ErrOTPNotRequested   = errors.New("please send otp first")
	ErrOTPDeliveryFailed = errors.New("could not deliver otp email")
)

// OTPMailer delivers a one-time code out-of-band.
type OTPMailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

type OTPService struct {
	verifications ports.VerificationRepository
	mailer        OTPMailer
	digits        int
	ttl           time.Duration
}

func NewOTPService(verifications ports.VerificationRepository, mailer OTPMailer, digits int, ttl time.Duration) *OTPService {
	if digits <= 0 {
		digits = 6
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPService{verifications: verifications, mailer: mailer, digits: digits, ttl: ttl}
}

// Issue generates a fresh code for the email, replacing any outstanding one,
// and mails it. The stored record survives a failed delivery: an undelivered
// code is unusable but harmless, and the client simply requests another.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmailRequired
	}

	code, err := util.GenerateNumericOTP(s.digits)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, salt, err := util.DeriveSecret(code)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	if _, err := s.verifications.Replace(ctx, email, hash, salt, time.Now().Add(s.ttl)); err != nil {
		return fmt.Errorf("store verification: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPDeliveryFailed, err)
	}
	return nil
}

// Validate reports whether code matches the active verification for the
// email. It does not consume the record; callers call Consume only after
// their own writes succeed, so a mid-operation failure leaves the code
// usable for a retry.
func (s *OTPService) Validate(ctx context.Context, email, code string) (*domain.Verification, bool, error) {
	verification, err := s.verifications.FindActive(ctx, email, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrOTPNotRequested
		}
		return nil, false, fmt.Errorf("find verification: %w", err)
	}
	return verification, util.VerifySecret(code, verification.CodeSalt, verification.CodeHash), nil
}

func (s *OTPService) Consume(ctx context.Context, id int64) error {
	return s.verifications.Delete(ctx, id)
}

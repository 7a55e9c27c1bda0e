package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/idtoken"

	"github.com/bitshare/bitshare-api/internal/domain"
	"github.com/bitshare/bitshare-api/internal/repository/ports"
	"github.com/bitshare/bitshare-api/internal/util"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user doesn't exist")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrPasswordTooShort   = errors.New("password should be at least 6 characters long")
	ErrInvalidGoogleToken = errors.New("invalid google token")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

type googleVerifier func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type AuthService struct {
	users        ports.UserRepository
	otps         *OTPService
	tokens       *util.TokenIssuer
	googleAud    string
	verifyGoogle googleVerifier
}

func NewAuthService(users ports.UserRepository, otps *OTPService, tokens *util.TokenIssuer, googleAud string) *AuthService {
	return &AuthService{
		users:        users,
		otps:         otps,
		tokens:       tokens,
		googleAud:    googleAud,
		verifyGoogle: idtoken.Validate,
	}
}

// LoginResult carries the sanitized user plus the issued token pair.
type LoginResult struct {
	User   domain.User
	Tokens *util.TokenPair
}

// Register creates a user once the presented code matches the active
// verification for the email. The verification is consumed only after the
// user row exists.
func (s *AuthService) Register(ctx context.Context, name, email, password, otp string, profilePic *string) (*domain.User, error) {
	if len(password) < util.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	verification, match, err := s.otps.Validate(ctx, email, otp)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidOTP
	}

	hash, salt, err := util.DeriveSecret(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, name, email, hash, salt, profilePic)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.otps.Consume(ctx, verification.ID); err != nil {
		log.Printf("consume verification for %s: %v", email, err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Login deliberately reports the same error for an unknown email and a wrong
// password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !util.VerifySecret(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &LoginResult{User: user.Sanitized(), Tokens: pair}, nil
}

// ChangePassword rejects a mismatched code before touching the user row.
func (s *AuthService) ChangePassword(ctx context.Context, email, otp, newPassword string) error {
	if len(newPassword) < util.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	verification, match, err := s.otps.Validate(ctx, email, otp)
	if err != nil {
		return err
	}
	if !match {
		return ErrInvalidOTP
	}

	hash, salt, err := util.DeriveSecret(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.otps.Consume(ctx, verification.ID); err != nil {
		log.Printf("consume verification for %s: %v", email, err)
	}
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// LoginWithGoogle validates the Google ID token and signs the user in,
// creating the account on first sight.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idTok string) (*LoginResult, error) {
	payload, err := s.verifyGoogle(ctx, idTok, s.googleAud)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, ErrInvalidGoogleToken
	}
	name, _ := payload.Claims["name"].(string)
	var picture *string
	if pic, _ := payload.Claims["picture"].(string); pic != "" {
		picture = &pic
	}

	user, err := s.users.UpsertGoogleUser(ctx, email, name, picture)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &LoginResult{User: user.Sanitized(), Tokens: pair}, nil
}

// Authenticate resolves the session user from the access token, falling back
// to the refresh token and minting a fresh pair when the access token no
// longer verifies. The returned pair is nil when no rotation happened.
func (s *AuthService) Authenticate(ctx context.Context, access, refresh string) (*domain.User, *util.TokenPair, error) {
	if userID, err := s.tokens.VerifyAccess(access); err == nil {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, nil, ErrUnauthenticated
		}
		return user, nil, nil
	}

	if refresh == "" {
		return nil, nil, ErrUnauthenticated
	}
	userID, err := s.tokens.VerifyRefresh(refresh)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}
	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}
	return user, pair, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

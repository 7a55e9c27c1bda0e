package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/bitshare/bitshare-api/internal/domain"
	"github.com/bitshare/bitshare-api/internal/service"
	"github.com/bitshare/bitshare-api/internal/util"
)

type memUserRepo struct {
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: map[string]*domain.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, name, email string, passwordHash, passwordSalt []byte, profilePic *string) (*domain.User, error) {
	if _, ok := r.byEmail[email]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		ProfilePic:   profilePic,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.byEmail[email] = user
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) UpsertGoogleUser(ctx context.Context, email, name string, profilePic *string) (*domain.User, error) {
	if user, ok := r.byEmail[email]; ok {
		clone := *user
		return &clone, nil
	}
	return r.Create(ctx, name, email, nil, nil, profilePic)
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	for _, user := range r.byEmail {
		if user.ID == id {
			user.PasswordHash = append([]byte(nil), passwordHash...)
			user.PasswordSalt = append([]byte(nil), passwordSalt...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *memUserRepo) UpdateProfilePic(ctx context.Context, id uuid.UUID, key string) error {
	for _, user := range r.byEmail {
		if user.ID == id {
			user.ProfilePic = &key
			return nil
		}
	}
	return sql.ErrNoRows
}

type memVerificationRepo struct {
	byEmail map[string]*domain.Verification
	nextID  int64
}

func newMemVerificationRepo() *memVerificationRepo {
	return &memVerificationRepo{byEmail: map[string]*domain.Verification{}}
}

func (r *memVerificationRepo) Replace(ctx context.Context, email string, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.Verification, error) {
	r.nextID++
	verification := &domain.Verification{
		ID:        r.nextID,
		Email:     email,
		CodeHash:  append([]byte(nil), codeHash...),
		CodeSalt:  append([]byte(nil), codeSalt...),
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	r.byEmail[email] = verification
	clone := *verification
	return &clone, nil
}

func (r *memVerificationRepo) FindActive(ctx context.Context, email string, now time.Time) (*domain.Verification, error) {
	verification, ok := r.byEmail[email]
	if !ok || verification.ExpiresAt.Before(now) {
		return nil, sql.ErrNoRows
	}
	clone := *verification
	return &clone, nil
}

func (r *memVerificationRepo) Delete(ctx context.Context, id int64) error {
	for email, verification := range r.byEmail {
		if verification.ID == id {
			delete(r.byEmail, email)
			return nil
		}
	}
	return nil
}

type captureMailer struct {
	lastCode string
}

func (m *captureMailer) SendOTP(ctx context.Context, email, code string) error {
	m.lastCode = code
	return nil
}

type authTestEnv struct {
	e      *echo.Echo
	mailer *captureMailer
	users  *memUserRepo
}

func newAuthTestEnv() *authTestEnv {
	users := newMemUserRepo()
	verifications := newMemVerificationRepo()
	mailer := &captureMailer{}
	otps := service.NewOTPService(verifications, mailer, 6, 10*time.Minute)
	tokens := util.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	auth := service.NewAuthService(users, otps, tokens, "")

	e := echo.New()
	RegisterAuth(e, auth, otps)
	return &authTestEnv{e: e, mailer: mailer, users: users}
}

func (env *authTestEnv) do(t *testing.T, method, path, body string, cookies []*http.Cookie) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var envelope util.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not an envelope: %v: %s", err, rec.Body.String())
	}
	return rec, envelope
}

func TestSendOTPRequiresEmail(t *testing.T) {
	env := newAuthTestEnv()
	rec, envelope := env.do(t, http.MethodPost, "/sendotp", `{}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if envelope.OK || envelope.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newAuthTestEnv()

	rec, envelope := env.do(t, http.MethodPost, "/sendotp", `{"email":"a@x.com"}`, nil)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("sendotp failed: %d %+v", rec.Code, envelope)
	}
	code := env.mailer.lastCode
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit mailed code, got %q", code)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	rec, envelope = env.do(t, http.MethodPost, "/register", `{"name":"A","email":"a@x.com","password":"secret1","otp":"`+wrong+`"}`, nil)
	if rec.Code != http.StatusBadRequest || envelope.OK {
		t.Fatalf("expected register to fail on wrong otp: %d %+v", rec.Code, envelope)
	}
	if len(env.users.byEmail) != 0 {
		t.Fatal("no user must be created on OTP mismatch")
	}

	rec, envelope = env.do(t, http.MethodPost, "/register", `{"name":"A","email":"a@x.com","password":"secret1","otp":"`+code+`"}`, nil)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("register failed: %d %+v", rec.Code, envelope)
	}

	// The code was consumed: re-presenting it reports the missing-OTP path.
	rec, envelope = env.do(t, http.MethodPost, "/changepassword", `{"email":"a@x.com","otp":"`+code+`","password":"another1"}`, nil)
	if rec.Code != http.StatusBadRequest || envelope.Message != "please send otp first" {
		t.Fatalf("expected consumed otp to be gone: %d %+v", rec.Code, envelope)
	}

	rec, wrongPass := env.do(t, http.MethodPost, "/login", `{"email":"a@x.com","password":"wrong-pass"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong password, got %d", rec.Code)
	}
	rec, unknown := env.do(t, http.MethodPost, "/login", `{"email":"none@x.com","password":"secret1"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown email, got %d", rec.Code)
	}
	if wrongPass.Message != unknown.Message {
		t.Fatalf("credential errors must be indistinguishable: %q vs %q", wrongPass.Message, unknown.Message)
	}

	rec, envelope = env.do(t, http.MethodPost, "/login", `{"email":"a@x.com","password":"secret1"}`, nil)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("login failed: %d %+v", rec.Code, envelope)
	}
	if strings.Contains(rec.Body.String(), "password_hash") || strings.Contains(rec.Body.String(), "secret1") {
		t.Fatal("login response must not leak credential material")
	}

	cookies := rec.Result().Cookies()
	var haveAuth, haveRefresh bool
	for _, cookie := range cookies {
		switch cookie.Name {
		case authTokenCookie:
			haveAuth = cookie.Value != ""
		case refreshTokenCookie:
			haveRefresh = cookie.Value != ""
		}
	}
	if !haveAuth || !haveRefresh {
		t.Fatalf("expected both session cookies, got %v", cookies)
	}

	rec, envelope = env.do(t, http.MethodGet, "/checklogin", "", cookies)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("checklogin failed: %d %+v", rec.Code, envelope)
	}

	rec, envelope = env.do(t, http.MethodGet, "/getuser", "", cookies)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("getuser failed: %d %+v", rec.Code, envelope)
	}

	rec, envelope = env.do(t, http.MethodGet, "/logout", "", cookies)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("logout failed: %d %+v", rec.Code, envelope)
	}
	for _, cookie := range rec.Result().Cookies() {
		if (cookie.Name == authTokenCookie || cookie.Name == refreshTokenCookie) && cookie.Value != "" {
			t.Fatalf("expected %s to be cleared", cookie.Name)
		}
	}
}

func TestRegisterTwiceReportsExistingUser(t *testing.T) {
	env := newAuthTestEnv()

	env.do(t, http.MethodPost, "/sendotp", `{"email":"a@x.com"}`, nil)
	code := env.mailer.lastCode
	rec, envelope := env.do(t, http.MethodPost, "/register", `{"name":"A","email":"a@x.com","password":"secret1","otp":"`+code+`"}`, nil)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("first register failed: %d %+v", rec.Code, envelope)
	}

	// Even with a fresh valid OTP the second registration must fail.
	env.do(t, http.MethodPost, "/sendotp", `{"email":"a@x.com"}`, nil)
	code = env.mailer.lastCode
	rec, envelope = env.do(t, http.MethodPost, "/register", `{"name":"A","email":"a@x.com","password":"secret1","otp":"`+code+`"}`, nil)
	if rec.Code != http.StatusBadRequest || envelope.Message != "user already exists" {
		t.Fatalf("expected already-exists failure: %d %+v", rec.Code, envelope)
	}
}

func TestCheckLoginWithoutCookies(t *testing.T) {
	env := newAuthTestEnv()
	rec, envelope := env.do(t, http.MethodGet, "/checklogin", "", nil)
	if rec.Code != http.StatusUnauthorized || envelope.OK {
		t.Fatalf("expected 401, got %d %+v", rec.Code, envelope)
	}
}

func TestChangePasswordFlow(t *testing.T) {
	env := newAuthTestEnv()

	env.do(t, http.MethodPost, "/sendotp", `{"email":"a@x.com"}`, nil)
	code := env.mailer.lastCode
	env.do(t, http.MethodPost, "/register", `{"name":"A","email":"a@x.com","password":"secret1","otp":"`+code+`"}`, nil)

	env.do(t, http.MethodPost, "/sendotp", `{"email":"a@x.com"}`, nil)
	code = env.mailer.lastCode

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	rec, envelope := env.do(t, http.MethodPost, "/changepassword", `{"email":"a@x.com","otp":"`+wrong+`","password":"new-secret"}`, nil)
	if rec.Code != http.StatusBadRequest || envelope.Message != "invalid otp" {
		t.Fatalf("expected invalid-otp failure: %d %+v", rec.Code, envelope)
	}

	rec, envelope = env.do(t, http.MethodPost, "/changepassword", `{"email":"a@x.com","otp":"`+code+`","password":"new-secret"}`, nil)
	if rec.Code != http.StatusOK || !envelope.OK {
		t.Fatalf("changepassword failed: %d %+v", rec.Code, envelope)
	}

	rec, _ = env.do(t, http.MethodPost, "/login", `{"email":"a@x.com","password":"new-secret"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login with the new password to succeed, got %d", rec.Code)
	}
	rec, _ = env.do(t, http.MethodPost, "/login", `{"email":"a@x.com","password":"secret1"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected login with the old password to fail, got %d", rec.Code)
	}
}

package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UserID uuid.UUID `json:"userId"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

func (m *JWTManager) Generate(userID uuid.UUID) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}

// TokenPair is the stateless session credential: a short-lived access token
// and a longer-lived refresh token signed with independent secrets.
type TokenPair struct {
	AccessToken      string    `json:"authToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

type TokenIssuer struct {
	access  *JWTManager
	refresh *JWTManager
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		access:  NewJWTManager(accessSecret, accessTTL),
		refresh: NewJWTManager(refreshSecret, refreshTTL),
	}
}

func (i *TokenIssuer) IssuePair(userID uuid.UUID) (*TokenPair, error) {
	access, accessExp, err := i.access.Generate(userID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.refresh.Generate(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *TokenIssuer) VerifyAccess(token string) (uuid.UUID, error) {
	claims, err := i.access.Parse(token)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

func (i *TokenIssuer) VerifyRefresh(token string) (uuid.UUID, error) {
	claims, err := i.refresh.Parse(token)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

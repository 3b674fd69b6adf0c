package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded payload shared by access and refresh tokens.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Manager signs and verifies HS256 tokens with a single shared secret.
// Access and refresh tokens differ only by their lifetime.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) NewAccessToken(subject string) (string, error) {
	return m.NewToken(subject, m.accessTTL)
}

func (m *Manager) NewRefreshToken(subject string) (string, error) {
	return m.NewToken(subject, m.refreshTTL)
}

func (m *Manager) NewToken(subject string, ttl time.Duration) (string, error) {
	const op = "lib.jwt.NewToken"

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(m.now().UTC().Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Parse checks signature, algorithm and expiry. No leeway is applied.
func (m *Manager) Parse(tokenStr string) (Claims, error) {
	const op = "lib.jwt.Parse"

	var claims jwt.RegisteredClaims

	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%s: %w: missing sub claim", op, ErrInvalidToken)
	}

	return Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

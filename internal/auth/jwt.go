package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = time.Hour

var (
	ErrInvalidIdentity  = errors.New("invalid identity: username is required")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

// Identity is what gets signed into a token.
type Identity struct {
	Username string
	IsAdmin  bool
}

type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Manager)

// WithClock overrides the time source used for iat/exp and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(secret string, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	m := &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) Issue(id Identity) (string, error) {
	if strings.TrimSpace(id.Username) == "" {
		return "", ErrInvalidIdentity
	}

	now := m.now().UTC()

	claims := Claims{
		Username: id.Username,
		IsAdmin:  id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) IssueFor(u user.User) (string, error) {
	return m.Issue(Identity{Username: u.Username, IsAdmin: u.IsAdmin})
}

func (m *Manager) Verify(tokenStr string) (Claims, error) {
	if !hasThreeSegments(tokenStr) {
		return Claims{}, ErrMalformedToken
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) {
			// Enforce HS256
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidSignature
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return Claims{}, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformedToken
	}

	if claims.Username == "" {
		return Claims{}, ErrMalformedToken
	}

	return *claims, nil
}

// classify maps jwt/v5 errors onto the codec's taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformedToken
	}
}

func hasThreeSegments(tokenStr string) bool {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

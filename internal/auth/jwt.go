// Package auth verifies the HS256 session tokens minted by the linernotes
// auth subsystem.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/linernotes/linernotes/pkg/middleware"
)

// Issuer is the iss claim every session token must carry.
const Issuer = "linernotes-auth"

var errNoSubject = errors.New("session token has no subject")

// SessionClaims is the payload of a session token. UserID falls back to the
// registered sub claim when absent.
type SessionClaims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokens signs and verifies session tokens with a shared secret.
// Production tokens come from the auth subsystem; Issue serves the seed tool
// and tests.
type SessionTokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSessionTokens returns a verifier for secret. ttl applies to Issue only.
func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for userID.
func (s *SessionTokens) Issue(userID, email, role string) (string, error) {
	now := s.now().UTC()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry and returns the claims.
func (s *SessionTokens) Parse(raw string) (*SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify session token: %w", err)
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errNoSubject
	}
	return &claims, nil
}

// Validate is a middleware.TokenValidator.
func (s *SessionTokens) Validate(raw string) (*middleware.Claims, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{UserID: c.UserID, Email: c.Email, Role: c.Role}, nil
}

func (s *SessionTokens) keyFunc(*jwt.Token) (any, error) {
	return s.key, nil
}

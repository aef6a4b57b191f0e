package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails validation: bad
// signature, wrong algorithm, malformed, expired, or missing its subject.
// Callers must not distinguish between these causes.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and validates signed bearer tokens carrying the user's
// email as the subject claim. The signing key is static for the process;
// rotating it invalidates every outstanding token.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a TokenService. now may be nil, in which case
// time.Now is used; tests inject a fake clock.
func NewTokenService(secret string, ttl time.Duration, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}
}

// Issue signs a token for the given email, expiring after the configured TTL.
func (s *TokenService) Issue(email string) (string, error) {
	issued := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies a token, returning the email it was issued
// for. Expiry is checked against the service clock.
func (s *TokenService) Validate(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

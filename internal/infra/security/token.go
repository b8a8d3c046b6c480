package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

var (
	ErrSigningKeyMissing = errors.New("token: signing key is required")
	ErrTokenSubject      = errors.New("token: subject missing")
)

// JWTIssuer signs HS256 bearer tokens whose subject is the user id.
type JWTIssuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func NewJWTIssuer(secret, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSigningKeyMissing
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTIssuer{Secret: []byte(secret), Issuer: issuer, TTL: ttl}, nil
}

func (i *JWTIssuer) Issue(userID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.UTC().Add(i.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    i.Issuer,
		IssuedAt:  jwt.NewNumericDate(now.UTC()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

func (i *JWTIssuer) Parse(token string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if i.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.Issuer))
	}
	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return i.Secret, nil }, opts...); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenSubject
	}
	return claims.Subject, nil
}

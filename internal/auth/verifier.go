package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// KeySource hands out the key that verifies tokens signed with alg.
type KeySource interface {
	VerificationKey(ctx context.Context, alg string) (any, error)
}

// StaticKeys serves a fixed RSA public key for RS256 and a shared secret
// for HS256. Either may be empty.
type StaticKeys struct {
	RSA    *rsa.PublicKey
	Secret []byte
}

func (k StaticKeys) VerificationKey(_ context.Context, alg string) (any, error) {
	switch alg {
	case jwt.SigningMethodRS256.Alg():
		if k.RSA != nil {
			return k.RSA, nil
		}
	case jwt.SigningMethodHS256.Alg():
		if len(k.Secret) > 0 {
			return k.Secret, nil
		}
	}
	return nil, fmt.Errorf("no key for algorithm %s", alg)
}

// Algorithms lists the signing methods k can verify.
func (k StaticKeys) Algorithms() []string {
	var algs []string
	if k.RSA != nil {
		algs = append(algs, jwt.SigningMethodRS256.Alg())
	}
	if len(k.Secret) > 0 {
		algs = append(algs, jwt.SigningMethodHS256.Alg())
	}
	return algs
}

// LoadRSAPublicKey reads a PEM encoded RSA public key.
func LoadRSAPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenVerifier checks bearer tokens and turns them into an Identity.
type TokenVerifier struct {
	keys     KeySource
	methods  []string
	issuer   string
	audience string
}

// NewTokenVerifier accepts tokens signed with one of methods. Empty issuer or
// audience are not checked.
func NewTokenVerifier(keys KeySource, methods []string, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{keys: keys, methods: methods, issuer: issuer, audience: audience}
}

func (v *TokenVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return v.keys.VerificationKey(ctx, t.Method.Alg())
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email := strings.TrimSpace(c.Email)
	if email == "" {
		return Identity{}, fmt.Errorf("%w: email claim missing", ErrInvalidToken)
	}
	return Identity{Email: email, Name: c.Name}, nil
}

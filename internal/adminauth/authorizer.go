package adminauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("Unauthorized")

const tokenType = "admin"

//go:generate mockgen -destination=../mocks/mock_authorizer.go -package=mocks account-dispenser/internal/adminauth Authorizer

// Authorizer decides whether a presented admin secret grants access.
type Authorizer interface {
	Authorize(ctx context.Context, secret string) error
}

type staticAuthorizer struct {
	secret []byte
}

// NewStatic compares the presented secret against a fixed value.
func NewStatic(secret string) Authorizer {
	return &staticAuthorizer{secret: []byte(secret)}
}

func (a *staticAuthorizer) Authorize(_ context.Context, secret string) error {
	if len(a.secret) == 0 || subtle.ConstantTimeCompare([]byte(secret), a.secret) != 1 {
		return ErrUnauthorized
	}
	return nil
}

type bcryptAuthorizer struct {
	hash []byte
}

// NewBcrypt checks the presented secret against a bcrypt hash so the plain secret
// never has to live in configuration.
func NewBcrypt(hash string) (Authorizer, error) {
	hash = strings.TrimSpace(hash)
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse bcrypt hash: %w", err)
	}
	return &bcryptAuthorizer{hash: []byte(hash)}, nil
}

func (a *bcryptAuthorizer) Authorize(_ context.Context, secret string) error {
	if secret == "" {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(secret)); err != nil {
		return ErrUnauthorized
	}
	return nil
}

type jwtAuthorizer struct {
	secret []byte
}

// NewJWT accepts HS256 admin tokens signed with signingSecret as the admin secret.
func NewJWT(signingSecret string) Authorizer {
	return &jwtAuthorizer{secret: []byte(signingSecret)}
}

func (a *jwtAuthorizer) Authorize(_ context.Context, secret string) error {
	tokenStr := strings.TrimSpace(secret)
	if tokenStr == "" || len(a.secret) == 0 {
		return ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ErrUnauthorized
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return ErrUnauthorized
	}

	return nil
}

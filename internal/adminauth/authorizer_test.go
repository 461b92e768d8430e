package adminauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAuthorizer(t *testing.T) {
	authorizer := NewStatic("s3cret")

	assert.NoError(t, authorizer.Authorize(context.Background(), "s3cret"))
	assert.ErrorIs(t, authorizer.Authorize(context.Background(), "s3cre"), ErrUnauthorized)
	assert.ErrorIs(t, authorizer.Authorize(context.Background(), ""), ErrUnauthorized)
}

func TestStaticAuthorizer_EmptySecretDeniesEverything(t *testing.T) {
	authorizer := NewStatic("")

	assert.ErrorIs(t, authorizer.Authorize(context.Background(), ""), ErrUnauthorized)
}

func TestBcryptAuthorizer(t *testing.T) {
	hash, err := HashSecret("correct horse")
	require.NoError(t, err)

	authorizer, err := NewBcrypt(hash)
	require.NoError(t, err)

	assert.NoError(t, authorizer.Authorize(context.Background(), "correct horse"))
	assert.ErrorIs(t, authorizer.Authorize(context.Background(), "battery staple"), ErrUnauthorized)
	assert.ErrorIs(t, authorizer.Authorize(context.Background(), ""), ErrUnauthorized)
}

func TestNewBcrypt_RejectsInvalidHash(t *testing.T) {
	_, err := NewBcrypt("plaintext")

	assert.Error(t, err)
}

func TestJWTAuthorizer(t *testing.T) {
	const signingSecret = "jwt-signing-secret"
	now := time.Now()
	authorizer := NewJWT(signingSecret)

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueToken(signingSecret, "ops", time.Hour, now)
		require.NoError(t, err)

		assert.NoError(t, authorizer.Authorize(context.Background(), token))
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := IssueToken(signingSecret, "ops", time.Minute, now.Add(-time.Hour))
		require.NoError(t, err)

		assert.ErrorIs(t, authorizer.Authorize(context.Background(), token), ErrUnauthorized)
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		token, err := IssueToken("other-secret", "ops", time.Hour, now)
		require.NoError(t, err)

		assert.ErrorIs(t, authorizer.Authorize(context.Background(), token), ErrUnauthorized)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "ops",
			"typ": tokenType,
		}).SignedString([]byte(signingSecret))
		require.NoError(t, err)

		assert.ErrorIs(t, authorizer.Authorize(context.Background(), token), ErrUnauthorized)
	})

	t.Run("wrong token type", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "ops",
			"typ": "refresh",
			"exp": now.Add(time.Hour).Unix(),
		}).SignedString([]byte(signingSecret))
		require.NoError(t, err)

		assert.ErrorIs(t, authorizer.Authorize(context.Background(), token), ErrUnauthorized)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
			"typ": tokenType,
			"exp": now.Add(time.Hour).Unix(),
		}).SignedString([]byte(signingSecret))
		require.NoError(t, err)

		assert.ErrorIs(t, authorizer.Authorize(context.Background(), token), ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.ErrorIs(t, authorizer.Authorize(context.Background(), "not-a-jwt"), ErrUnauthorized)
	})
}

func TestIssueToken_Validation(t *testing.T) {
	_, err := IssueToken("", "ops", time.Hour, time.Now())
	assert.Error(t, err)

	_, err = IssueToken("secret", "ops", 0, time.Now())
	assert.Error(t, err)
}

func TestHashSecret_RequiresSecret(t *testing.T) {
	_, err := HashSecret("")

	assert.Error(t, err)
}

package token_test

import (
	"testing"
	"time"

	"github.com/AshikurRahmanMunna/intertools-server/internal/token"
	"github.com/stretchr/testify/assert"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	svc := token.NewService([]byte("testsecret"), 24*time.Hour)

	tokenStr, err := svc.Issue("user@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenStr)

	email, err := svc.Verify(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestVerify_Expired(t *testing.T) {
	// Отрицательный TTL — токен просрочен в момент выпуска
	svc := token.NewService([]byte("testsecret"), -time.Minute)

	tokenStr, err := svc.Issue("user@example.com")
	assert.NoError(t, err)

	_, err = svc.Verify(tokenStr)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := token.NewService([]byte("secret-one"), time.Hour)
	verifier := token.NewService([]byte("secret-two"), time.Hour)

	tokenStr, err := issuer.Issue("user@example.com")
	assert.NoError(t, err)

	_, err = verifier.Verify(tokenStr)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	svc := token.NewService([]byte("testsecret"), time.Hour)

	_, err := svc.Verify("not.a.token")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

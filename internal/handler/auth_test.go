package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/khlin/ticket-registration/internal/config"
)

func TestLogin(t *testing.T) {
	h := NewAuthHandler(config.Config{
		LoginPassword: "opensesame",
		JWTSecret:     "test-secret",
		SessionTTLH:   1,
	})
	e := echo.New()

	rec, c := doJSON(e, http.MethodPost, "/api/login", `{"password":"wrong"}`)
	assert.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, c = doJSON(e, http.MethodPost, "/api/login", `{"password":"opensesame"}`)
	assert.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestLoginWithBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("opensesame"), bcrypt.MinCost)
	assert.NoError(t, err)

	h := NewAuthHandler(config.Config{
		LoginPassword:     "ignored-when-hash-set",
		LoginPasswordHash: string(hash),
		JWTSecret:         "test-secret",
		SessionTTLH:       1,
	})
	e := echo.New()

	rec, c := doJSON(e, http.MethodPost, "/api/login", `{"password":"opensesame"}`)
	assert.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, c = doJSON(e, http.MethodPost, "/api/login", `{"password":"ignored-when-hash-set"}`)
	assert.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecretMatchesEmptyConfigNeverMatches(t *testing.T) {
	assert.False(t, secretMatches("", "", ""))
	assert.False(t, secretMatches("anything", "", ""))
}

package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/khlin/ticket-registration/internal/config"
)

// AuthHandler implements the shared-secret login gate. There are no user
// accounts: the registrar console presents one password and receives a
// session token. The token proves nothing beyond "the secret was entered",
// so it carries no identity claims worth auditing.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

type loginReq struct {
	Password string `json:"password"`
}

// Login handles POST /api/login. A wrong password is rejected with 401 and
// no hint about the expected value.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !secretMatches(req.Password, h.Cfg.LoginPassword, h.Cfg.LoginPasswordHash) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "wrong password"})
	}

	claims := jwt.MapClaims{
		"sub": "console",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Duration(h.Cfg.SessionTTLH) * time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.Cfg.JWTSecret))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "token": tok})
}

// secretMatches compares a supplied password against the configured secret.
// When a bcrypt hash is configured it wins over the plain value; the plain
// comparison is constant time. An empty configuration never matches.
func secretMatches(supplied, plain, hash string) bool {
	if hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
	}
	if plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(supplied)) == 1
}

// Package auth supplies the authenticated username for each request. Users
// come from a static credential file (bcrypt password hashes); sessions are
// HS256 JWTs carried in a cookie.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CookieName carries the session token, mirroring the original tracker's
// 30-day login cookie.
const CookieName = "monny_session"

var ErrInvalidCredentials = errors.New("invalid username or password")

type ctxKey int

const usernameKey ctxKey = iota

// Credential is one entry of the credentials file.
type Credential struct {
	DisplayName  string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// LoadCredentials reads a JSON file mapping username to credential.
func LoadCredentials(path string) (map[string]Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var creds map[string]Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if len(creds) == 0 {
		return nil, errors.New("credentials file contains no users")
	}
	return creds, nil
}

type Authenticator struct {
	secret []byte
	ttl    time.Duration
	creds  map[string]Credential
}

func New(secret string, ttl time.Duration, creds map[string]Credential) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		creds:  creds,
	}
}

// Login checks the password against the stored bcrypt hash and returns a
// signed session token. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (a *Authenticator) Login(username, password string) (string, error) {
	cred, ok := a.creds[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  username,
		"name": cred.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
		"jti":  uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a session token and returns the username it was issued to.
func (a *Authenticator) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	username, ok := claims["sub"].(string)
	if !ok || username == "" {
		return "", ErrInvalidCredentials
	}
	return username, nil
}

// DisplayName returns the human-readable name for a known username.
func (a *Authenticator) DisplayName(username string) string {
	return a.creds[username].DisplayName
}

// SessionCookie wraps a token in the session cookie.
func (a *Authenticator) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware rejects requests without a valid session cookie and puts the
// username into the request context for handlers.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		username, err := a.Verify(cookie.Value)
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Username returns the authenticated username for the request, or false when
// the request carries no session.
func Username(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// HashPassword produces a bcrypt hash for seeding credential files.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

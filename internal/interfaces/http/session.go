package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// SessionConfig controls the session cookie
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Secret     string
}

// DefaultSessionConfig returns default session settings
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: "pr_session",
		TTL:        24 * time.Hour,
	}
}

var errBadSessionCookie = errors.New("invalid session cookie")

// sessionSigner signs session ids so that clients cannot pick another session's id
type sessionSigner struct {
	key []byte
}

// newSessionSigner derives the signing key from the configured secret
func newSessionSigner(secret string) (*sessionSigner, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	key := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("session-cookie"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return &sessionSigner{key: key}, nil
}

func (s *sessionSigner) mac(id string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Sign returns the cookie value for a session id
func (s *sessionSigner) Sign(id string) string {
	return id + "." + s.mac(id)
}

// Verify returns the session id held by a cookie value
func (s *sessionSigner) Verify(value string) (string, error) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok {
		return "", errBadSessionCookie
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", errBadSessionCookie
	}
	if !hmac.Equal([]byte(sig), []byte(s.mac(id))) {
		return "", errBadSessionCookie
	}
	return id, nil
}

// NewID returns a fresh session id
func (s *sessionSigner) NewID() string {
	return uuid.NewString()
}

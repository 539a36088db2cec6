// Package security issues the one-shot form tokens rendered by formToken().
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FieldName is the form field carrying the token.
const FieldName = "multireqtoken"

// DefaultMaxAge bounds how long a token stays valid.
const DefaultMaxAge = 4 * time.Hour

var (
	ErrInvalidToken = errors.New("security: invalid token")
	ErrExpiredToken = errors.New("security: token expired")
	ErrTokenReused  = errors.New("security: token already used")
)

// IssuerOption customises a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithMaxAge overrides DefaultMaxAge.
func WithMaxAge(d time.Duration) IssuerOption {
	return func(t *TokenIssuer) {
		if d > 0 {
			t.maxAge = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// TokenIssuer signs tokens as nonce.unix.mac and remembers which ones were
// consumed so each validates once.
type TokenIssuer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time

	mu   sync.Mutex
	used map[string]time.Time
}

// NewTokenIssuer returns an issuer keyed by secret. An empty secret gets a
// random one, so tokens do not survive a restart.
func NewTokenIssuer(secret string, opts ...IssuerOption) *TokenIssuer {
	if secret == "" {
		secret = uuid.NewString()
	}
	t := &TokenIssuer{
		secret: []byte(secret),
		maxAge: DefaultMaxAge,
		now:    time.Now,
		used:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// NewToken returns a fresh token.
func (t *TokenIssuer) NewToken() string {
	nonce := uuid.NewString()
	issued := strconv.FormatInt(t.now().Unix(), 10)
	return nonce + "." + issued + "." + t.sign(nonce, issued)
}

// Validate checks signature and age and marks the token as used.
func (t *TokenIssuer) Validate(token string) error {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}
	nonce, issued, mac := parts[0], parts[1], parts[2]
	if _, err := uuid.Parse(nonce); err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal([]byte(mac), []byte(t.sign(nonce, issued))) {
		return ErrInvalidToken
	}
	unix, err := strconv.ParseInt(issued, 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	now := t.now()
	if now.Sub(time.Unix(unix, 0)) > t.maxAge {
		return ErrExpiredToken
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(now)
	if _, seen := t.used[nonce]; seen {
		return ErrTokenReused
	}
	t.used[nonce] = time.Unix(unix, 0)
	return nil
}

func (t *TokenIssuer) sign(nonce, issued string) string {
	h := hmac.New(sha256.New, t.secret)
	h.Write([]byte(nonce))
	h.Write([]byte{'.'})
	h.Write([]byte(issued))
	return hex.EncodeToString(h.Sum(nil))
}

// prune forgets nonces old enough to fail the age check anyway.
func (t *TokenIssuer) prune(now time.Time) {
	for nonce, issued := range t.used {
		if now.Sub(issued) > t.maxAge {
			delete(t.used, nonce)
		}
	}
}

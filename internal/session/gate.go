// Package session owns the bearer credential and the two-state
// Anonymous/Authenticated machine derived from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/batuhanyalcin/storefront/internal/keyval"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKey is the well-known key the credential persists under.
const TokenKey = "accessToken"

var ErrLoginFailed = errors.New("login failed")

// Authenticator performs the credential exchange with the auth
// collaborator. Implementations must not require an existing session.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (token string, err error)
}

// Gate tracks session validity for the whole process. Any collaborator
// call that observes an authentication failure routes through Invalidate,
// so expiry is a process-wide transition no matter which call tripped it.
type Gate struct {
	store keyval.Store
	auth  Authenticator
	log   *slog.Logger

	mu    sync.RWMutex
	token string
}

func NewGate(store keyval.Store, auth Authenticator, log *slog.Logger) *Gate {
	g := &Gate{store: store, auth: auth, log: log}

	// Absence of the persisted key is equivalent to Anonymous.
	if b, err := store.Get(context.Background(), TokenKey); err == nil {
		g.token = string(b)
	}
	return g
}

// IsAuthenticated is a pure read of local state; no network round trip.
func (g *Gate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token != ""
}

// Token returns the current bearer value, empty when Anonymous.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

func (g *Gate) Login(ctx context.Context, username, password string) error {
	token, err := g.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if token == "" {
		return fmt.Errorf("%w: empty token in response", ErrLoginFailed)
	}

	g.mu.Lock()
	g.token = token
	g.mu.Unlock()

	if err := g.store.Set(ctx, TokenKey, []byte(token)); err != nil {
		g.log.Warn("session token not persisted", slog.Any("err", err))
	}
	g.log.Info("session authenticated", slog.String("username", username))
	return nil
}

// Logout transitions to Anonymous regardless of prior state.
func (g *Gate) Logout(ctx context.Context) {
	g.clear(ctx)
	g.log.Info("session ended")
}

// Invalidate is the process-wide reaction to any authentication-failure
// response from a collaborator.
func (g *Gate) Invalidate(ctx context.Context) {
	g.clear(ctx)
	g.log.Warn("session invalidated by collaborator response")
}

func (g *Gate) clear(ctx context.Context) {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()

	if err := g.store.Delete(ctx, TokenKey); err != nil {
		g.log.Warn("session token not cleared", slog.Any("err", err))
	}
}

// ExpiresAt peeks at the token's exp claim without verifying the
// signature (the client never holds the signing key). Advisory only:
// validity is decided by collaborator responses, not locally.
func (g *Gate) ExpiresAt() (time.Time, bool) {
	tok := g.Token()
	if tok == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

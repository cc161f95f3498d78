// Package session holds the connected account for one client session.
package session

import (
	"context"
	"sync"
)

type ctxKey struct{}

// Session is the live client state shared by the UI layer. Account is empty
// while no wallet is connected.
type Session struct {
	mu          sync.RWMutex
	account     string
	initialized bool
}

func New() *Session {
	return &Session{}
}

// Init runs restore once for the lifetime of the session.
func (s *Session) Init(ctx context.Context, restore func(ctx context.Context)) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.mu.Unlock()

	if restore != nil {
		restore(ctx)
	}
}

// Teardown forgets the account and allows a later Init.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.account = ""
	s.initialized = false
}

func (s *Session) Account() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Session) SetAccount(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
}

// Connected reports whether an account is set.
func (s *Session) Connected() bool {
	return s.Account() != ""
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

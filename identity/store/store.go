// Package store caches tokens obtained by a completed handshake, keyed by
// issuer and scopes, so a CLI does not need to reopen the browser while a
// token is still valid.
package store

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// TokenKey identifies a cached token
type TokenKey struct {
	Issuer string
	Scopes string
}

// NewTokenKey normalizes the scope list
func NewTokenKey(issuer, scope string) TokenKey {
	return TokenKey{Issuer: strings.TrimRight(issuer, "/"), Scopes: strings.Join(strings.Fields(scope), " ")}
}

func (k TokenKey) String() string { return k.Issuer + "|" + k.Scopes }

// Store persists tokens
type Store interface {
	LookupToken(ctx context.Context, key TokenKey) (*oauth2.Token, bool)
	AddToken(ctx context.Context, key TokenKey, token *oauth2.Token) error
}

type memoryStore struct {
	mu     sync.RWMutex
	tokens map[TokenKey]*oauth2.Token
}

func (m *memoryStore) LookupToken(_ context.Context, key TokenKey) (*oauth2.Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[key]
	return token, ok
}

func (m *memoryStore) AddToken(_ context.Context, key TokenKey, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore() Store {
	return &memoryStore{tokens: map[TokenKey]*oauth2.Token{}}
}

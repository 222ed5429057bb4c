package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"golang.org/x/oauth2"
)

// FileStore persists tokens as a JSON document at any afs URL
type FileStore struct {
	mu     sync.RWMutex
	URL    string
	fs     afs.Service
	loaded bool
	tokens map[TokenKey]*oauth2.Token
}

type fileSnapshot struct {
	Tokens map[string]*oauth2.Token `json:"tokens"`
}

// NewFileStore creates a store persisting at URL; the document is read lazily
func NewFileStore(URL string) *FileStore {
	return &FileStore{URL: URL, fs: afs.New(), tokens: map[TokenKey]*oauth2.Token{}}
}

func (f *FileStore) LookupToken(ctx context.Context, key TokenKey) (*oauth2.Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLoaded(ctx); err != nil {
		return nil, false
	}
	token, ok := f.tokens[key]
	return token, ok
}

func (f *FileStore) AddToken(ctx context.Context, key TokenKey, token *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	f.tokens[key] = token
	return f.save(ctx)
}

func (f *FileStore) ensureLoaded(ctx context.Context) error {
	if f.loaded {
		return nil
	}
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to check token store %v: %w", f.URL, err)
	}
	if exists {
		data, err := f.fs.DownloadWithURL(ctx, f.URL)
		if err != nil {
			return fmt.Errorf("failed to read token store %v: %w", f.URL, err)
		}
		snapshot := fileSnapshot{}
		if err = json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("failed to decode token store %v: %w", f.URL, err)
		}
		for k, token := range snapshot.Tokens {
			parts := strings.SplitN(k, "|", 2)
			if len(parts) != 2 {
				continue
			}
			f.tokens[TokenKey{Issuer: parts[0], Scopes: parts[1]}] = token
		}
	}
	f.loaded = true
	return nil
}

func (f *FileStore) save(ctx context.Context) error {
	snapshot := fileSnapshot{Tokens: map[string]*oauth2.Token{}}
	for key, token := range f.tokens {
		snapshot.Tokens[key.String()] = token
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write token store %v: %w", f.URL, err)
	}
	return nil
}

package epic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore persists the Epic OAuth token between invocations. The
// authorization-code flow is interactive, so the token outlives the
// process that obtained it.
type TokenStore struct {
	filePath string
	mu       sync.RWMutex
}

// NewTokenStore creates a store at filePath, expanding a leading ~/.
func NewTokenStore(filePath string) *TokenStore {
	if strings.HasPrefix(filePath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			filePath = filepath.Join(home, filePath[2:])
		}
	}
	return &TokenStore{filePath: filePath}
}

// Save writes the token with owner-only permissions.
func (ts *TokenStore) Save(token *oauth2.Token) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if dir := filepath.Dir(ts.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("epic: create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("epic: marshal token: %w", err)
	}
	if err := os.WriteFile(ts.filePath, data, 0o600); err != nil {
		return fmt.Errorf("epic: write token file: %w", err)
	}
	return nil
}

// Load reads the stored token.
func (ts *TokenStore) Load() (*oauth2.Token, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	data, err := os.ReadFile(ts.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokenFileNotFound
		}
		return nil, fmt.Errorf("epic: read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenFile, err)
	}
	return &token, nil
}

// Delete removes the token file.
func (ts *TokenStore) Delete() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := os.Remove(ts.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("epic: delete token file: %w", err)
	}
	return nil
}

// Path returns where the token is stored.
func (ts *TokenStore) Path() string {
	return ts.filePath
}

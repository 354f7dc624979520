// Package session persists the authenticated identity of the client: the
// bearer token and the last-known user record. It is the single source of
// truth for "am I logged in" across restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
	"github.com/dmitrijs2005/communityhub/internal/client/storage"
)

const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// ErrCorruptSession is wrapped by reads whose persisted value is not valid JSON.
var ErrCorruptSession = errors.New("corrupt persisted session")

// Store reads and writes the session through a storage.KV. It holds no
// state of its own, so several components may share one Store.
type Store struct {
	kv storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Token returns the persisted token or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	raw, err := s.kv.Get(ctx, KeyToken)
	if err != nil || raw == nil {
		return "", err
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("%w: token: %v", ErrCorruptSession, err)
	}
	return token, nil
}

// SetToken persists token; an empty token removes it.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.kv.Remove(ctx, KeyToken)
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyToken, raw)
}

// User returns the cached user record or nil when none is stored.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	raw, err := s.kv.Get(ctx, KeyUser)
	if err != nil || raw == nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("%w: user: %v", ErrCorruptSession, err)
	}
	return &u, nil
}

// SetUser persists u; nil removes the cached record.
func (s *Store) SetUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return s.kv.Remove(ctx, KeyUser)
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyUser, raw)
}

// Clear removes token and user together.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Remove(ctx, KeyToken, KeyUser)
}

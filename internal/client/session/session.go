// Package session holds the worker's single source of truth for "is the
// user authenticated, and as whom". The in-memory copy is loaded from
// durable storage at startup and on every external wake-up, because another
// process (or a restart) may have changed what is stored.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/client/storage"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/logging"
)

// Session is a point-in-time copy of the authentication state. Token and
// User are either both set or both empty.
type Session struct {
	Token string
	User  *models.User
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Store guards the in-memory session. The mutex is held across storage I/O
// so a reader never observes a token without its user.
type Store struct {
	mu     sync.RWMutex
	kv     storage.Store
	logger logging.Logger
	now    func() time.Time

	token string
	user  *models.User
}

func NewStore(kv storage.Store, l logging.Logger) *Store {
	return &Store{kv: kv, logger: l.With("module", "session"), now: time.Now}
}

// Load replaces the in-memory session with what durable storage holds. Any
// read or decode failure, or a token stored without its user, leaves the
// store logged out. It never fails.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, user, err := s.read(ctx)
	if err != nil {
		s.logger.Warn(ctx, "session read failed, treating as logged out", "error", err)
		s.token, s.user = "", nil
		return
	}
	if (token == "") != (user == nil) {
		s.logger.Warn(ctx, "stored session is incomplete, treating as logged out")
		s.token, s.user = "", nil
		return
	}

	s.token, s.user = token, user
	if token == "" {
		s.logger.Debug(ctx, "session loaded", "authenticated", false)
		return
	}

	args := []any{"authenticated", true, "user_id", user.ID}
	if exp, ok := TokenExpiry(token); ok {
		args = append(args, "expires_at", exp.UTC().Format(time.RFC3339))
		if exp.Before(s.now()) {
			s.logger.Warn(ctx, "stored token is past its expiry", "user_id", user.ID)
		}
	}
	s.logger.Debug(ctx, "session loaded", args...)
}

func (s *Store) read(ctx context.Context) (string, *models.User, error) {
	var token string
	if _, err := storage.GetJSON(ctx, s.kv, common.KeyAuthToken, &token); err != nil {
		return "", nil, err
	}
	var user *models.User
	if _, err := storage.GetJSON(ctx, s.kv, common.KeyCurrentUser, &user); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Set persists token and user together, then publishes them in memory. On a
// storage failure the in-memory session is left unchanged.
func (s *Store) Set(ctx context.Context, token string, user *models.User) error {
	if token == "" || user == nil {
		return common.ErrInvalidSession
	}

	tb, err := json.Marshal(token)
	if err != nil {
		return err
	}
	ub, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.SetMany(ctx, map[string][]byte{
		common.KeyAuthToken:   tb,
		common.KeyCurrentUser: ub,
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.token, s.user = token, user.Clone()
	s.logger.Info(ctx, "session established", "user_id", user.ID)
	return nil
}

// UpdateUser refreshes the stored user record of the session that token
// belongs to, e.g. after a verify or a subscription status fetch. It does
// nothing when logged out or when the session has since changed hands.
func (s *Store) UpdateUser(ctx context.Context, token string, user *models.User) error {
	if user == nil {
		return common.ErrInvalidSession
	}
	ub, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || s.token != token {
		s.logger.Debug(ctx, "stale user update ignored", "user_id", user.ID)
		return nil
	}
	if err := s.kv.Set(ctx, common.KeyCurrentUser, ub); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	s.user = user.Clone()
	return nil
}

// Clear removes the session from storage and memory. Memory is cleared even
// when storage fails, so logout always takes effect for this process.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token, s.user = "", nil

	if err := s.kv.Delete(ctx, common.KeyAuthToken, common.KeyCurrentUser); err != nil {
		s.logger.Error(ctx, "failed to remove stored session", "error", err)
		return fmt.Errorf("remove session: %w", err)
	}
	s.logger.Info(ctx, "session cleared")
	return nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Token: s.token, User: s.user.Clone()}
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

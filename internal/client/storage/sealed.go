package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/cryptox"
)

// saltKey holds the argon2 salt for the sealing key. It is stored in clear.
const saltKey = "sealSalt"

// SealedStore encrypts the values of selected keys before they reach the
// wrapped Store. Other keys pass through unchanged.
type SealedStore struct {
	inner  Store
	sealer *cryptox.Sealer
	keys   map[string]struct{}
}

// NewSealedStore derives the sealing key from secret and the salt kept in
// inner, creating the salt on first use.
func NewSealedStore(ctx context.Context, inner Store, secret []byte, keys []string) (*SealedStore, error) {
	salt, err := inner.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		if salt, err = cryptox.NewSalt(); err != nil {
			return nil, err
		}
		if err := inner.Set(ctx, saltKey, salt); err != nil {
			return nil, err
		}
	}

	sealer, err := cryptox.NewSealer(cryptox.DeriveKey(secret, salt))
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &SealedStore{inner: inner, sealer: sealer, keys: set}, nil
}

func (s *SealedStore) sealed(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.inner.Get(ctx, key)
	if err != nil || v == nil || !s.sealed(key) {
		return v, err
	}
	plain, err := s.sealer.Open(v, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", key, common.ErrStorage, err)
	}
	return plain, nil
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, map[string][]byte{key: value})
}

func (s *SealedStore) SetMany(ctx context.Context, values map[string][]byte) error {
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		if !s.sealed(k) {
			out[k] = v
			continue
		}
		sealed, err := s.sealer.Seal(v, []byte(k))
		if err != nil {
			return fmt.Errorf("seal %s: %w", k, err)
		}
		out[k] = sealed
	}
	return s.inner.SetMany(ctx, out)
}

func (s *SealedStore) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

// List returns opened values; entries that fail to open are skipped, and
// the salt is hidden.
func (s *SealedStore) List(ctx context.Context) (map[string][]byte, error) {
	all, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	delete(all, saltKey)
	for k, v := range all {
		if !s.sealed(k) {
			continue
		}
		plain, err := s.sealer.Open(v, []byte(k))
		if err != nil {
			delete(all, k)
			continue
		}
		all[k] = plain
	}
	return all, nil
}

// Clear removes everything except the salt, so values written afterwards
// stay readable with the same secret.
func (s *SealedStore) Clear(ctx context.Context) error {
	all, err := s.inner.List(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		if k != saltKey {
			keys = append(keys, k)
		}
	}
	return s.inner.Delete(ctx, keys...)
}

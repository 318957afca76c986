package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// SetJSON stores v under key as a JSON document.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, b)
}

// SetManyJSON stores every value as a JSON document in one SetMany call.
func SetManyJSON(ctx context.Context, s Store, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		encoded[k] = b
	}
	return s.SetMany(ctx, encoded)
}

// GetJSON decodes the value under key into v. It reports false when the key
// is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	b, err := s.Get(ctx, key)
	if err != nil || b == nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Bool, String and Int read a typed value and fall back to def when the key
// is absent, unreadable or of the wrong type.
func Bool(ctx context.Context, s Store, key string, def bool) bool {
	return valueOr(ctx, s, key, def)
}

func String(ctx context.Context, s Store, key string, def string) string {
	return valueOr(ctx, s, key, def)
}

func Int(ctx context.Context, s Store, key string, def int) int {
	return valueOr(ctx, s, key, def)
}

func valueOr[T any](ctx context.Context, s Store, key string, def T) T {
	var v T
	ok, err := GetJSON(ctx, s, key, &v)
	if err != nil || !ok {
		return def
	}
	return v
}

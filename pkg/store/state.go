package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// StateKey names a JSON value kept in persistent state.
type StateKey string

// FavoritesKey is the default key of the favorites id list.
const FavoritesKey StateKey = "favorites"

// LoadJSON decodes the value under key into v. found is false when the key
// is absent or empty; a value that does not decode is returned as an error.
func LoadJSON(ctx context.Context, st StateStore, key StateKey, v any) (found bool, err error) {
	raw, ok := st.GetState(ctx, string(key))
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode state %q: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, st StateStore, key StateKey, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	return st.SetState(ctx, string(key), string(data))
}

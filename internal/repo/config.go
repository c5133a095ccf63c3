package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"emmark/internal/config"
	"emmark/internal/store"
)

var ErrNotFound = errors.New("not found")

// GetConfig reads the event config blob.
func (r Repo) GetConfig(ctx context.Context) (*config.Config, error) {
	raw, ok, err := r.Store.Get(ctx, store.ConfigKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedData, store.ConfigKey, err)
	}
	return &cfg, cfg.Validate()
}

// UpsertConfig stores the event config blob.
func (r Repo) UpsertConfig(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return r.Store.Put(ctx, store.ConfigKey, string(payload))
}

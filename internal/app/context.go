package app

import (
	"context"
	"errors"
	"fmt"

	"emmark/internal/config"
	"emmark/internal/repo"
)

// ResolveConfig loads the event config from the store, seeding the
// default on first use so every command sees a valid config.
func ResolveConfig(ctx context.Context, r repo.Repo) (*config.Config, error) {
	cfg, err := r.GetConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	cfg = config.Default()
	if err := r.UpsertConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("seed config: %w", err)
	}
	return cfg, nil
}

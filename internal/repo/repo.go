package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"emmark/internal/domain"
	"emmark/internal/store"
)

// ErrMalformedData marks stored collection text that is not valid JSON.
// It is recoverable: callers log it and continue with an empty collection.
var ErrMalformedData = errors.New("malformed stored data")

// Repo serializes the two entity collections to and from the store.
// Each Save* writes the whole collection under its fixed key.
type Repo struct {
	DB    *sql.DB
	Store store.Store
}

func New(db *sql.DB) Repo {
	return Repo{DB: db, Store: store.Store{DB: db}}
}

// LoadClients reads the client collection. A missing key yields an empty
// collection; unparsable text yields ErrMalformedData.
func (r Repo) LoadClients(ctx context.Context) ([]domain.Client, error) {
	raw, ok, err := r.Store.Get(ctx, store.ClientsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var clients []domain.Client
	if err := json.Unmarshal([]byte(raw), &clients); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedData, store.ClientsKey, err)
	}
	return clients, nil
}

// SaveClients overwrites the stored client collection. An empty
// collection is stored as [], matching what the browser build wrote.
func (r Repo) SaveClients(ctx context.Context, clients []domain.Client) error {
	if clients == nil {
		clients = []domain.Client{}
	}
	return r.saveCollection(ctx, store.ClientsKey, clients)
}

// LoadActivities reads the activity collection, with the same missing-key
// and malformed-data semantics as LoadClients.
func (r Repo) LoadActivities(ctx context.Context) ([]domain.Activity, error) {
	raw, ok, err := r.Store.Get(ctx, store.ActivitiesKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var activities []domain.Activity
	if err := json.Unmarshal([]byte(raw), &activities); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedData, store.ActivitiesKey, err)
	}
	return activities, nil
}

// SaveActivities overwrites the stored activity collection.
func (r Repo) SaveActivities(ctx context.Context, activities []domain.Activity) error {
	if activities == nil {
		activities = []domain.Activity{}
	}
	return r.saveCollection(ctx, store.ActivitiesKey, activities)
}

func (r Repo) saveCollection(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return r.Store.Put(ctx, key, string(payload))
}

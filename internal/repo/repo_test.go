package repo_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"emmark/internal/db"
	"emmark/internal/domain"
	"emmark/internal/migrate"
	"emmark/internal/repo"
	"emmark/internal/store"
)

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.New(conn)
}

func TestLoadClientsMissingKey(t *testing.T) {
	r := newTestRepo(t)
	clients, err := r.LoadClients(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(clients) != 0 {
		t.Fatalf("expected empty collection, got %d", len(clients))
	}
}

func TestClientRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	in := []domain.Client{
		{ID: "c1", Name: "Ana", Branch: "Centro", Phone: "555-1234", IsConfirmed: true},
		{ID: "c2", Name: "Luis"},
	}
	if err := r.SaveClients(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := r.LoadClients(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: got %+v", out)
	}
}

func TestActivityRoundTripWithAttachment(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	in := []domain.Activity{{
		ID:       "a1",
		Name:     "Carpa",
		Date:     "2026-09-01",
		Cost:     1500,
		InCharge: "Pedro",
		Type:     domain.TypeLogistica,
		Status:   domain.StatusPendiente,
		Attachment: &domain.Attachment{
			Name: "plano.pdf",
			Type: "application/pdf",
			Data: repo.EncodeDataURL("application/pdf", []byte("%PDF-1.4 fake")),
		},
	}}
	if err := r.SaveActivities(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := r.LoadActivities(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(out))
	}
	if out[0].Attachment == nil || *out[0].Attachment != *in[0].Attachment {
		t.Fatalf("attachment mismatch: got %+v", out[0].Attachment)
	}
}

func TestLoadMalformedData(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	if err := r.Store.Put(ctx, store.ClientsKey, "{not json"); err != nil {
		t.Fatalf("seed malformed: %v", err)
	}
	_, err := r.LoadClients(ctx)
	if !errors.Is(err, repo.ErrMalformedData) {
		t.Fatalf("expected ErrMalformedData, got %v", err)
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	original := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0xff, 0x01}
	encoded := repo.EncodeDataURL("image/png", original)
	mimeType, data, err := repo.DecodeDataURL(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mimeType != "image/png" {
		t.Fatalf("mime type: got %s, want image/png", mimeType)
	}
	if !bytes.Equal(data, original) {
		t.Fatalf("bytes changed across round trip: got %v", data)
	}
}

func TestDecodeDataURLRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "plain text", "data:image/png;base64", "data:image/png,abc"} {
		if _, _, err := repo.DecodeDataURL(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestConfigSeedAndRead(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	if _, err := r.GetConfig(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before seeding, got %v", err)
	}
}

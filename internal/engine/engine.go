package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"emmark/internal/config"
	"emmark/internal/domain"
	"emmark/internal/events"
	"emmark/internal/repo"
)

// ErrOversizeAttachment marks a file rejected before any read attempt.
var ErrOversizeAttachment = errors.New("attachment exceeds size limit")

// ErrNotFound is returned by targeted commands on an unknown id. The
// full-object Update* commands deliberately no-op instead.
var ErrNotFound = repo.ErrNotFound

// Engine owns the two collections. Every command loads the current
// collection, applies the mutation, and writes the whole collection back,
// so the store always mirrors the in-memory state.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.New(db),
		Events: events.Writer{DB: db},
		Config: cfg,
	}
}

func (e Engine) maxAttachmentSize() int64 {
	if e.Config != nil && e.Config.Attachments.MaxSizeBytes > 0 {
		return e.Config.Attachments.MaxSizeBytes
	}
	return config.DefaultMaxAttachmentSize
}

// Clients returns the current client collection. Malformed stored data is
// logged and treated as empty rather than failing the command.
func (e Engine) Clients(ctx context.Context) ([]domain.Client, error) {
	clients, err := e.Repo.LoadClients(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrMalformedData) {
			log.Printf("recovering from malformed client data: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return clients, nil
}

// Activities returns the current activity collection, with the same
// malformed-data recovery as Clients.
func (e Engine) Activities(ctx context.Context) ([]domain.Activity, error) {
	activities, err := e.Repo.LoadActivities(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrMalformedData) {
			log.Printf("recovering from malformed activity data: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return activities, nil
}

// AddClient assigns a fresh id and appends the client (newest last).
func (e Engine) AddClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	if err := c.Validate(); err != nil {
		return domain.Client{}, err
	}
	c.ID = uuid.NewString()
	clients, err := e.Clients(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	clients = append(clients, c)
	if err := e.Repo.SaveClients(ctx, clients); err != nil {
		return domain.Client{}, err
	}
	if err := e.Events.Append(ctx, "client.add", "client", c.ID, events.EventPayload{"name": c.Name}); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

// UpdateClient replaces the client with matching id in place. An unknown
// id leaves the collection unchanged and reports found=false, no error.
func (e Engine) UpdateClient(ctx context.Context, c domain.Client) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	clients, err := e.Clients(ctx)
	if err != nil {
		return false, err
	}
	found := false
	for i := range clients {
		if clients[i].ID == c.ID {
			clients[i] = c
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	if err := e.Repo.SaveClients(ctx, clients); err != nil {
		return false, err
	}
	if err := e.Events.Append(ctx, "client.update", "client", c.ID, events.EventPayload{"name": c.Name}); err != nil {
		return false, err
	}
	return true, nil
}

// ConfirmClient flips the attendance flag. Unlike UpdateClient it targets
// a known record, so an unknown id is an error.
func (e Engine) ConfirmClient(ctx context.Context, id string, confirmed bool) (domain.Client, error) {
	clients, err := e.Clients(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	for i := range clients {
		if clients[i].ID != id {
			continue
		}
		clients[i].IsConfirmed = confirmed
		if err := e.Repo.SaveClients(ctx, clients); err != nil {
			return domain.Client{}, err
		}
		if err := e.Events.Append(ctx, "client.confirm", "client", id, events.EventPayload{"confirmed": confirmed}); err != nil {
			return domain.Client{}, err
		}
		return clients[i], nil
	}
	return domain.Client{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
}

// DeleteClient removes the client by id. Idempotent; deleting an unknown
// id is a no-op. Callers confirm with the user before invoking this.
func (e Engine) DeleteClient(ctx context.Context, id string) error {
	clients, err := e.Clients(ctx)
	if err != nil {
		return err
	}
	kept := clients[:0]
	removed := false
	for _, c := range clients {
		if c.ID == id {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return nil
	}
	if err := e.Repo.SaveClients(ctx, kept); err != nil {
		return err
	}
	return e.Events.Append(ctx, "client.delete", "client", id, nil)
}

// ActivityCreateOptions are parameters for creating an activity. At most
// one of AttachmentPath (a local file to inline) and Attachment (an
// already-encoded inline file, as the HTTP API receives it) is set.
type ActivityCreateOptions struct {
	Name           string
	Date           string
	Cost           float64
	InCharge       string
	Type           domain.ActivityType
	Status         domain.ActivityStatus
	AttachmentPath string
	Attachment     *domain.Attachment
}

// AddActivity builds, validates, and appends a new activity. When an
// attachment path is given the file is size-checked and inlined first;
// any failure there aborts the whole submission, so the entity is either
// fully constructed and added or not added at all.
func (e Engine) AddActivity(ctx context.Context, opts ActivityCreateOptions) (domain.Activity, error) {
	if opts.Type == "" {
		opts.Type = domain.TypeLogistica
	}
	if opts.Status == "" {
		opts.Status = domain.StatusPendiente
	}
	a := domain.Activity{
		Name:     opts.Name,
		Date:     opts.Date,
		Cost:     opts.Cost,
		InCharge: opts.InCharge,
		Type:     opts.Type,
		Status:   opts.Status,
	}
	if err := a.Validate(); err != nil {
		return domain.Activity{}, err
	}
	switch {
	case opts.AttachmentPath != "":
		att, err := e.encodeAttachment(opts.AttachmentPath)
		if err != nil {
			return domain.Activity{}, err
		}
		a.Attachment = &att
	case opts.Attachment != nil:
		if err := e.checkInlineAttachment(*opts.Attachment); err != nil {
			return domain.Activity{}, err
		}
		a.Attachment = opts.Attachment
	}
	a.ID = uuid.NewString()
	activities, err := e.Activities(ctx)
	if err != nil {
		return domain.Activity{}, err
	}
	activities = append(activities, a)
	if err := e.Repo.SaveActivities(ctx, activities); err != nil {
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, "activity.add", "activity", a.ID, events.EventPayload{"name": a.Name, "type": string(a.Type)}); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}

// UpdateActivity replaces the activity with matching id in place. An
// unknown id leaves the collection unchanged, found=false, no error.
func (e Engine) UpdateActivity(ctx context.Context, a domain.Activity) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	if a.Attachment != nil {
		if err := e.checkInlineAttachment(*a.Attachment); err != nil {
			return false, err
		}
	}
	activities, err := e.Activities(ctx)
	if err != nil {
		return false, err
	}
	found := false
	for i := range activities {
		if activities[i].ID == a.ID {
			activities[i] = a
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	if err := e.Repo.SaveActivities(ctx, activities); err != nil {
		return false, err
	}
	if err := e.Events.Append(ctx, "activity.update", "activity", a.ID, events.EventPayload{"name": a.Name}); err != nil {
		return false, err
	}
	return true, nil
}

// SetActivityStatus moves an activity to a new lifecycle state.
func (e Engine) SetActivityStatus(ctx context.Context, id string, status domain.ActivityStatus) (domain.Activity, error) {
	if !status.Valid() {
		return domain.Activity{}, fmt.Errorf("unknown activity status %q", status)
	}
	activities, err := e.Activities(ctx)
	if err != nil {
		return domain.Activity{}, err
	}
	for i := range activities {
		if activities[i].ID != id {
			continue
		}
		activities[i].Status = status
		if err := e.Repo.SaveActivities(ctx, activities); err != nil {
			return domain.Activity{}, err
		}
		if err := e.Events.Append(ctx, "activity.status", "activity", id, events.EventPayload{"status": string(status)}); err != nil {
			return domain.Activity{}, err
		}
		return activities[i], nil
	}
	return domain.Activity{}, fmt.Errorf("activity %s: %w", id, ErrNotFound)
}

// DeleteActivity removes the activity by id. Idempotent no-op on unknown
// ids; callers confirm with the user first.
func (e Engine) DeleteActivity(ctx context.Context, id string) error {
	activities, err := e.Activities(ctx)
	if err != nil {
		return err
	}
	kept := activities[:0]
	removed := false
	for _, a := range activities {
		if a.ID == id {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return nil
	}
	if err := e.Repo.SaveActivities(ctx, kept); err != nil {
		return err
	}
	return e.Events.Append(ctx, "activity.delete", "activity", id, nil)
}

// AttachFile inlines a file onto an existing activity, replacing any
// previous attachment.
func (e Engine) AttachFile(ctx context.Context, id, path string) (domain.Activity, error) {
	att, err := e.encodeAttachment(path)
	if err != nil {
		return domain.Activity{}, err
	}
	activities, err := e.Activities(ctx)
	if err != nil {
		return domain.Activity{}, err
	}
	for i := range activities {
		if activities[i].ID != id {
			continue
		}
		activities[i].Attachment = &att
		if err := e.Repo.SaveActivities(ctx, activities); err != nil {
			return domain.Activity{}, err
		}
		if err := e.Events.Append(ctx, "activity.attach", "activity", id, events.EventPayload{"file": att.Name}); err != nil {
			return domain.Activity{}, err
		}
		return activities[i], nil
	}
	return domain.Activity{}, fmt.Errorf("activity %s: %w", id, ErrNotFound)
}

// AttachmentData returns an activity's attachment decoded back to its
// original bytes, for download.
func (e Engine) AttachmentData(ctx context.Context, id string) (domain.Attachment, []byte, error) {
	activities, err := e.Activities(ctx)
	if err != nil {
		return domain.Attachment{}, nil, err
	}
	for _, a := range activities {
		if a.ID != id {
			continue
		}
		if a.Attachment == nil {
			return domain.Attachment{}, nil, fmt.Errorf("activity %s has no attachment", id)
		}
		_, data, err := repo.DecodeDataURL(a.Attachment.Data)
		if err != nil {
			return domain.Attachment{}, nil, err
		}
		return *a.Attachment, data, nil
	}
	return domain.Attachment{}, nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
}

// checkInlineAttachment validates an already-encoded attachment against
// the same size ceiling the file path goes through.
func (e Engine) checkInlineAttachment(att domain.Attachment) error {
	_, data, err := repo.DecodeDataURL(att.Data)
	if err != nil {
		return err
	}
	if max := e.maxAttachmentSize(); int64(len(data)) > max {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrOversizeAttachment, att.Name, len(data), max)
	}
	return nil
}

// encodeAttachment enforces the size ceiling before any read happens.
func (e Engine) encodeAttachment(path string) (domain.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: %s: %v", repo.ErrFileRead, path, err)
	}
	if max := e.maxAttachmentSize(); info.Size() > max {
		return domain.Attachment{}, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrOversizeAttachment, path, info.Size(), max)
	}
	return repo.EncodeFileInline(path)
}

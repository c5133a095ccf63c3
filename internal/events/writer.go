package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Writer appends audit rows for mutations (client.add, activity.delete, ...).
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, evtType, entityKind, entityID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = w.DB.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,payload_json) VALUES (?,?,?,?,?)`,
		ts, evtType, entityKind, nullable(entityID), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

package repo

import (
	"context"

	"emmark/internal/domain"
)

// LatestEvents returns the newest audit rows, optionally filtered.
func (r Repo) LatestEvents(ctx context.Context, n int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	if n <= 0 {
		n = 20
	}
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,'') AS entity_id,payload_json FROM events`
	var (
		clauses []string
		args    []any
	)
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + clauses[0]
		for _, c := range clauses[1:] {
			query += " AND " + c
		}
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, n)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

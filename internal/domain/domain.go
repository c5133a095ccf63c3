package domain

import (
	"errors"
	"fmt"
)

// ActivityType is the closed set of activity categories. Values are the
// Spanish labels stored on disk, so existing data loads unchanged.
type ActivityType string

const (
	TypeLogistica       ActivityType = "Logística"
	TypeEntretenimiento ActivityType = "Entretenimiento"
	TypeCatering        ActivityType = "Catering"
	TypeMarketing       ActivityType = "Marketing"
	TypeOtro            ActivityType = "Otro"
)

// ActivityTypes lists all categories in display order.
func ActivityTypes() []ActivityType {
	return []ActivityType{TypeLogistica, TypeEntretenimiento, TypeCatering, TypeMarketing, TypeOtro}
}

func (t ActivityType) Valid() bool {
	switch t {
	case TypeLogistica, TypeEntretenimiento, TypeCatering, TypeMarketing, TypeOtro:
		return true
	}
	return false
}

// ParseActivityType validates a raw label.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown activity type %q", s)
	}
	return t, nil
}

// ActivityStatus is the closed set of lifecycle states.
type ActivityStatus string

const (
	StatusPendiente  ActivityStatus = "Pendiente"
	StatusEnProceso  ActivityStatus = "En Proceso"
	StatusFinalizada ActivityStatus = "Finalizada"
)

// ActivityStatuses lists all states in display order.
func ActivityStatuses() []ActivityStatus {
	return []ActivityStatus{StatusPendiente, StatusEnProceso, StatusFinalizada}
}

func (s ActivityStatus) Valid() bool {
	switch s {
	case StatusPendiente, StatusEnProceso, StatusFinalizada:
		return true
	}
	return false
}

// ParseActivityStatus validates a raw label.
func ParseActivityStatus(s string) (ActivityStatus, error) {
	st := ActivityStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown activity status %q", s)
	}
	return st, nil
}

// Client is an event guest. JSON field names match the persisted layout.
type Client struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Branch      string `json:"branch"`
	Phone       string `json:"phone"`
	IsConfirmed bool   `json:"isConfirmed"`
}

// Validate checks required fields. The ID is assigned by the engine.
func (c Client) Validate() error {
	if c.Name == "" {
		return errors.New("client name is required")
	}
	return nil
}

// Attachment is a single inline file. Data holds a data-URL string
// (data:<mime>;base64,<payload>).
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Activity is an event task with cost, owner, and lifecycle state.
type Activity struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Date       string         `json:"date"`
	Cost       float64        `json:"cost"`
	InCharge   string         `json:"inCharge"`
	Type       ActivityType   `json:"type"`
	Status     ActivityStatus `json:"status"`
	Attachment *Attachment    `json:"attachment,omitempty"`
}

// Event is an audit-log row recording a single mutation.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// Validate checks required fields and value ranges.
func (a Activity) Validate() error {
	if a.Name == "" {
		return errors.New("activity name is required")
	}
	if a.Cost < 0 {
		return fmt.Errorf("activity cost must be non-negative, got %v", a.Cost)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("unknown activity type %q", a.Type)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("unknown activity status %q", a.Status)
	}
	return nil
}

package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"cuentas/internal/core"
)

// Action is the kind of mutation a RecordEvent reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// RecordEvent announces a successful write to one of the utility collections.
// Consumers reload what they need from the store; the event carries just
// enough to route and log it.
type RecordEvent struct {
	Action     Action       `json:"action"`
	Utility    core.Utility `json:"utility"`
	ID         string       `json:"id"`
	Year       int          `json:"year"`
	Month      core.Month   `json:"month"`
	TotalCents int64        `json:"total_cents"`
	Timestamp  time.Time    `json:"timestamp"`
}

func NewRecordEvent(action Action, u core.Utility, id string, p core.Period, total core.Money) *RecordEvent {
	return &RecordEvent{
		Action:     action,
		Utility:    u,
		ID:         id,
		Year:       p.Year,
		Month:      p.Month,
		TotalCents: int64(total),
		Timestamp:  time.Now().UTC(),
	}
}

func (m *RecordEvent) Period() core.Period {
	return core.Period{Year: m.Year, Month: m.Month}
}

func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON decodes and sanity-checks a message body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Utility.IsValid() {
		return nil, errors.New("record event: unknown utility")
	}
	if msg.ID == "" {
		return nil, errors.New("record event: missing id")
	}
	return &msg, nil
}

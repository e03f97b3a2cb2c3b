package amqp

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"cruce/internal/conflict"
)

// ConflictAlert announces a search whose records include a contract bought
// by the declarant's own public entity.
type ConflictAlert struct {
	ID               string    `json:"id"`
	Declarant        string    `json:"nombreDeclarante"`
	CoincidentEntity string    `json:"enteCoincidente"`
	Flagged          int       `json:"contratosMarcados"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewConflictAlert stamps a fresh alert for declarant.
func NewConflictAlert(declarant string, c conflict.Result) *ConflictAlert {
	return &ConflictAlert{
		ID:               uuid.NewString(),
		Declarant:        declarant,
		CoincidentEntity: c.CoincidentEntity,
		Flagged:          c.Flagged,
		Timestamp:        time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ConflictAlert) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ConflictAlertFromJSON decodes an alert and checks its identity.
func ConflictAlertFromJSON(data []byte) (*ConflictAlert, error) {
	var msg ConflictAlert
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, err
	}
	return &msg, nil
}

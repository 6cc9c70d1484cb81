package amqp

import (
	"encoding/json"
	"time"
)

// ReconcileMessage asks the worker to finish committing a payment intent.
// It carries only the intent ID; the worker fetches the intent from the
// database, so a stale message can never apply stale data.
type ReconcileMessage struct {
	IntentID  string    `json:"intent_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReconcileMessage(intentID string) *ReconcileMessage {
	return &ReconcileMessage{
		IntentID:  intentID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ReconcileMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReconcileMessageFromJSON(data []byte) (*ReconcileMessage, error) {
	var msg ReconcileMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

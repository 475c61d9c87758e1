package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	ActionUpserted = "upserted"
	ActionDeleted  = "deleted"
)

// OverrideChangeMessage announces one override mutation. It carries the
// full change so consumers need no read-back from the override store.
type OverrideChangeMessage struct {
	TransactionID string    `json:"transaction_id"`
	Action        string    `json:"action"`
	AmountCents   *int64    `json:"amount_cents,omitempty"`
	Category      *string   `json:"category,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewOverrideChangeMessage(transactionID, action string, amountCents *int64, category *string) *OverrideChangeMessage {
	return &OverrideChangeMessage{
		TransactionID: transactionID,
		Action:        action,
		AmountCents:   amountCents,
		Category:      category,
		OccurredAt:    time.Now().UTC(),
	}
}

func (m *OverrideChangeMessage) Validate() error {
	if m.TransactionID == "" {
		return errors.New("missing transaction_id")
	}
	if m.Action != ActionUpserted && m.Action != ActionDeleted {
		return errors.New("unknown action: " + m.Action)
	}
	return nil
}

func (m *OverrideChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OverrideChangeMessageFromJSON(data []byte) (*OverrideChangeMessage, error) {
	var msg OverrideChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

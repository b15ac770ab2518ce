package amqp

import (
	"encoding/json"
	"time"
)

// Entry kinds carried by ledger events.
const (
	KindIncome  = "income"
	KindExpense = "expense"
	KindDebt    = "debt"
)

// EntryEventMessage is a lightweight notification that a ledger entry was
// recorded. It carries only identifiers, the worker fetches the full row
// from the database.
type EntryEventMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEventMessage(kind string, id, userID int64) *EntryEventMessage {
	return &EntryEventMessage{
		Kind:      kind,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *EntryEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryEventMessageFromJSON(data []byte) (*EntryEventMessage, error) {
	var msg EntryEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

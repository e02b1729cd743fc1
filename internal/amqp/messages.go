package amqp

import (
	"encoding/json"
	"time"
)

// Export actions carried on the wire.
const (
	ActionAppend = "append"
	ActionRemove = "remove"
)

// TransactionExportMessage tells the export worker to mirror one transaction
// to the spreadsheet. It carries only the id and the action, the worker
// fetches the full record from the database.
type TransactionExportMessage struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionExportMessage(id, action string) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Action != ActionAppend && msg.Action != ActionRemove {
		return nil, &UnknownActionError{Action: msg.Action}
	}
	return &msg, nil
}

// UnknownActionError marks a message whose action the worker cannot handle.
// Such messages are dropped instead of requeued.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return "unknown export action: " + e.Action
}

package amqp

import (
	"encoding/json"
	"time"

	"chitieu/internal/core"
)

// ChangeKind is what happened to a transaction.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// TransactionChange is published after a mutation reached the remote store.
// It names the transaction but does not carry its full content.
type TransactionChange struct {
	Kind          ChangeKind `json:"kind"`
	SheetID       string     `json:"sheet_id"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Date          string     `json:"date"`
	Month         string     `json:"month"`
	Amount        core.Dong  `json:"amount,omitempty"`
	Category      string     `json:"category,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	// Origin identifies the publishing session.
	Origin string `json:"origin,omitempty"`
}

// NewTransactionChange describes a change to tx in month.
func NewTransactionChange(kind ChangeKind, sheetID string, tx core.Transaction, month string) *TransactionChange {
	return &TransactionChange{
		Kind:          kind,
		SheetID:       sheetID,
		TransactionID: tx.ID.String(),
		Date:          tx.Date,
		Month:         month,
		Amount:        tx.Amount,
		Category:      tx.Category,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionChangeFromJSON(data []byte) (*TransactionChange, error) {
	var msg TransactionChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

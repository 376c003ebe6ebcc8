// Package events publishes ledger changes to interested consumers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types
const (
	TypeTransactionsCreated = "transacoes.criadas"
	TypeTransactionDeleted  = "transacao.apagada"
)

// Event is a lightweight notification; consumers read the rows from the database.
type Event struct {
	Type           string    `json:"type"`
	OwnerID        uint      `json:"dono_id"`
	TransactionIDs []uint    `json:"transacao_ids"`
	TotalCents     int64     `json:"valor_total_centavos,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Publishing is best effort: callers log failures
// and never fail the request because of them.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

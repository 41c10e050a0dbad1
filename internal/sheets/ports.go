// Package sheets defines the outbound ports for statement export.
package sheets

import (
	"context"
	"time"
)

// StatementRow is one exported transaction, denormalized with its account
// context so the sheet is readable on its own.
type StatementRow struct {
	TransactionID int64
	Version       int64
	Owner         string
	AccountName   string
	OccurredAt    time.Time
	Name          string
	Type          string
	AmountCents   int64
}

// StatementWriter appends exported transactions to an external statement.
type StatementWriter interface {
	AppendStatement(ctx context.Context, row StatementRow) error
}

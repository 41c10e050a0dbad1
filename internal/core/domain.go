package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"

	// DefaultThemeColor is assigned to accounts created without an explicit color.
	DefaultThemeColor = "#8A2BE2"

	maxNameLength = 200
)

type (
	// TxType labels a transaction as income or expense. The same information
	// is carried redundantly in the sign of the amount; the two must agree.
	TxType string

	Money struct {
		Cents int64
	}

	// Account is a named budget bucket owned by one user. Names are unique
	// within an owner's account set.
	Account struct {
		ID              int64
		Owner           string
		Name            string
		StartingBalance Money
		ThemeColor      string
	}

	// Transaction is a single signed monetary event attached to one account.
	// Amount is positive for income and negative for expense.
	Transaction struct {
		ID         int64
		AccountID  int64
		OccurredAt time.Time
		Name       string
		Type       TxType
		Amount     Money
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 200 characters)")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrAmountSignMismatch = errors.New("amount sign does not match transaction type")
	ErrInvalidDatetime    = errors.New("invalid datetime")
	ErrEmptyOwner         = errors.New("empty owner")
	ErrDuplicateName      = errors.New("account name already exists")
	ErrNotFound           = errors.New("record not found")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// SignedCents derives the stored amount from a positive magnitude: income
// stays positive, expense becomes negative. Every write path goes through
// this so the sign/type invariant cannot be broken by callers.
func (t TxType) SignedCents(magnitude int64) (int64, error) {
	if magnitude <= 0 {
		return 0, ErrInvalidAmount
	}
	switch t {
	case Income:
		return magnitude, nil
	case Expense:
		return -magnitude, nil
	default:
		return 0, ErrInvalidType
	}
}

// TypeForAmount returns the type implied by a signed amount.
func TypeForAmount(cents int64) (TxType, error) {
	switch {
	case cents > 0:
		return Income, nil
	case cents < 0:
		return Expense, nil
	default:
		return "", ErrInvalidAmount
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (tx Transaction) Validate() error {
	if tx.OccurredAt.IsZero() {
		return ErrInvalidDatetime
	}
	if strings.TrimSpace(tx.Name) == "" {
		return ErrEmptyName
	}
	if len(tx.Name) > maxNameLength {
		return ErrNameTooLong
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if tx.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if tx.Type == Income && tx.Amount.Cents < 0 {
		return ErrAmountSignMismatch
	}
	if tx.Type == Expense && tx.Amount.Cents > 0 {
		return ErrAmountSignMismatch
	}
	return nil
}

// Magnitude returns the absolute value of the amount, the number users type
// into forms regardless of direction.
func (tx Transaction) Magnitude() int64 {
	if tx.Amount.Cents < 0 {
		return -tx.Amount.Cents
	}
	return tx.Amount.Cents
}

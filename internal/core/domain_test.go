package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignedCents(t *testing.T) {
	cases := []struct {
		typ       TxType
		magnitude int64
		out       int64
		err       error
	}{
		{Income, 5000, 5000, nil},
		{Expense, 5000, -5000, nil},
		{Income, 1, 1, nil},
		{Income, 0, 0, ErrInvalidAmount},
		{Expense, -100, 0, ErrInvalidAmount},
		{TxType("transfer"), 100, 0, ErrInvalidType},
	}
	for i, tc := range cases {
		got, err := tc.typ.SignedCents(tc.magnitude)
		if !errors.Is(err, tc.err) {
			t.Fatalf("case %d: expected err %v, got %v", i, tc.err, err)
		}
		if got != tc.out {
			t.Fatalf("case %d: expected %d, got %d", i, tc.out, got)
		}
	}
}

func TestTypeForAmount(t *testing.T) {
	if typ, err := TypeForAmount(500); err != nil || typ != Income {
		t.Fatalf("positive amount: expected income, got %v (err=%v)", typ, err)
	}
	if typ, err := TypeForAmount(-500); err != nil || typ != Expense {
		t.Fatalf("negative amount: expected expense, got %v (err=%v)", typ, err)
	}
	if _, err := TypeForAmount(0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	good := Transaction{
		AccountID:  1,
		OccurredAt: now,
		Name:       "salary",
		Type:       Income,
		Amount:     Money{Cents: 50000},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
		err  error
	}{
		{"zero datetime", Transaction{Name: "a", Type: Income, Amount: Money{Cents: 1}}, ErrInvalidDatetime},
		{"empty name", Transaction{OccurredAt: now, Type: Income, Amount: Money{Cents: 1}}, ErrEmptyName},
		{"blank name", Transaction{OccurredAt: now, Name: "   ", Type: Income, Amount: Money{Cents: 1}}, ErrEmptyName},
		{"name too long", Transaction{OccurredAt: now, Name: strings.Repeat("x", 201), Type: Income, Amount: Money{Cents: 1}}, ErrNameTooLong},
		{"bad type", Transaction{OccurredAt: now, Name: "a", Type: "loan", Amount: Money{Cents: 1}}, ErrInvalidType},
		{"zero amount", Transaction{OccurredAt: now, Name: "a", Type: Income, Amount: Money{}}, ErrInvalidAmount},
		{"income negative", Transaction{OccurredAt: now, Name: "a", Type: Income, Amount: Money{Cents: -1}}, ErrAmountSignMismatch},
		{"expense positive", Transaction{OccurredAt: now, Name: "a", Type: Expense, Amount: Money{Cents: 1}}, ErrAmountSignMismatch},
	}
	for _, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}
}

func TestAccountValidate(t *testing.T) {
	good := Account{Owner: "alice", Name: "Main", ThemeColor: DefaultThemeColor}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Account{Name: "Main"}).Validate(); !errors.Is(err, ErrEmptyOwner) {
		t.Fatal("expected ErrEmptyOwner")
	}
	if err := (Account{Owner: "alice"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatal("expected ErrEmptyName")
	}
	long := Account{Owner: "alice", Name: strings.Repeat("n", 201)}
	if err := long.Validate(); !errors.Is(err, ErrNameTooLong) {
		t.Fatal("expected ErrNameTooLong")
	}
}

func TestMagnitude(t *testing.T) {
	tx := Transaction{Amount: Money{Cents: -5000}}
	if tx.Magnitude() != 5000 {
		t.Fatalf("expected 5000, got %d", tx.Magnitude())
	}
}

// Package storage is the persistence gateway: it owns the SQLite connection
// and issues parameterized statements for account and transaction state.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"monny/internal/core"
	"monny/internal/sheets"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens the database, verifies connectivity, and applies
// migrations. Any failure here is fatal for the caller: the application must
// halt rather than run without storage.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListAccounts returns every account owned by owner, keyed by account name.
// Zero rows is a valid state and yields an empty map, never an error.
func (r *SQLiteRepository) ListAccounts(ctx context.Context, owner string) (map[string]core.Account, error) {
	rows, err := r.queries.ListAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts for %s: %w", owner, err)
	}

	accounts := make(map[string]core.Account, len(rows))
	for _, row := range rows {
		accounts[row.AccountName] = accountFromRow(row)
	}
	return accounts, nil
}

// ListAccountNames returns the owner's account names in listing order
// (name ascending), the order selection fallback follows.
func (r *SQLiteRepository) ListAccountNames(ctx context.Context, owner string) ([]string, error) {
	rows, err := r.queries.ListAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list account names for %s: %w", owner, err)
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.AccountName
	}
	return names, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return accountFromRow(row), nil
}

// CreateAccount inserts a new account with zero starting balance. The unique
// constraint on (owner_user, account_name) backstops the caller-side
// duplicate check.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, owner, name, color string) (core.Account, error) {
	if color == "" {
		color = core.DefaultThemeColor
	}
	row, err := r.queries.CreateAccount(ctx, CreateAccountParams{
		OwnerUser:   owner,
		AccountName: name,
		ThemeColor:  color,
	})
	if isUniqueViolation(err) {
		return core.Account{}, fmt.Errorf("create account %q for %s: %w", name, owner, core.ErrDuplicateName)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("create account %q for %s: %w", name, owner, err)
	}

	slog.InfoContext(ctx, "Account created",
		"id", row.ID,
		"owner", row.OwnerUser,
		"name", row.AccountName)

	return accountFromRow(row), nil
}

func (r *SQLiteRepository) RenameAccount(ctx context.Context, id int64, newName string) error {
	affected, err := r.queries.RenameAccount(ctx, id, newName)
	if isUniqueViolation(err) {
		return fmt.Errorf("rename account %d to %q: %w", id, newName, core.ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("rename account %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("rename account %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// UpdateAccountDetails replaces both the starting balance and theme color.
func (r *SQLiteRepository) UpdateAccountDetails(ctx context.Context, id int64, startingBalance core.Money, color string) error {
	affected, err := r.queries.UpdateAccountDetails(ctx, UpdateAccountDetailsParams{
		ID:                   id,
		StartingBalanceCents: startingBalance.Cents,
		ThemeColor:           color,
	})
	if err != nil {
		return fmt.Errorf("update account %d details: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update account %d details: %w", id, core.ErrNotFound)
	}
	return nil
}

// DeleteAccount removes the account and all its transactions in one SQL
// transaction, so a crash or failure mid-delete can never leave orphaned
// transaction rows behind.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete account %d: %w", id, err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	removed, err := qtx.DeleteTransactionsByAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transactions of account %d: %w", id, err)
	}

	affected, err := qtx.DeleteAccountRow(ctx, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete account %d: %w", id, core.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete account %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Account deleted",
		"id", id,
		"transactions_removed", removed)

	return nil
}

// ListTransactions returns the account's transactions newest first
// (tx_datetime descending, id descending as the tie-break).
func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %d: %w", accountID, err)
	}

	txs := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = transactionFromRow(row)
	}
	return txs, nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		AccountID:   tx.AccountID,
		TxDatetime:  tx.OccurredAt,
		TxName:      tx.Name,
		TxType:      string(tx.Type),
		AmountCents: tx.Amount.Cents,
	})
	if isForeignKeyViolation(err) {
		return core.Transaction{}, fmt.Errorf("add transaction to account %d: %w", tx.AccountID, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction to account %d: %w", tx.AccountID, err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", row.ID,
		"account_id", row.AccountID,
		"type", row.TxType,
		"amount_cents", row.AmountCents)

	return transactionFromRow(row), nil
}

// UpdateTransaction fully replaces datetime, name, type, and amount.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	affected, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		ID:          tx.ID,
		TxDatetime:  tx.OccurredAt,
		TxName:      tx.Name,
		TxType:      string(tx.Type),
		AmountCents: tx.Amount.Cents,
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update transaction %d: %w", tx.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction by id. Deleting an already-absent
// row is not an error, just a logged warning.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	affected, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if affected == 0 {
		slog.WarnContext(ctx, "Delete of missing transaction ignored", "id", id)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return transactionFromRow(row), nil
}

// TransactionVersion returns the current write version of a transaction,
// used by sync messages so stale exports can be detected.
func (r *SQLiteRepository) TransactionVersion(ctx context.Context, id int64) (int64, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return row.Version, nil
}

// ExportRow loads a transaction joined with its account for statement
// export.
func (r *SQLiteRepository) ExportRow(ctx context.Context, id int64) (sheets.StatementRow, error) {
	row, err := r.queries.GetExportRow(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return sheets.StatementRow{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return sheets.StatementRow{}, fmt.Errorf("export row for transaction %d: %w", id, err)
	}
	return sheets.StatementRow{
		TransactionID: row.ID,
		Version:       row.Version,
		Owner:         row.OwnerUser,
		AccountName:   row.AccountName,
		OccurredAt:    row.TxDatetime,
		Name:          row.TxName,
		Type:          row.TxType,
		AmountCents:   row.AmountCents,
	}, nil
}

// PendingSyncTransactions returns transactions not yet exported, oldest first.
func (r *SQLiteRepository) PendingSyncTransactions(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.queries.PendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("pending sync transactions: %w", err)
	}
	pending := make([]PendingTransaction, len(rows))
	for i, row := range rows {
		pending[i] = PendingTransaction{ID: row.ID, Version: row.Version}
	}
	return pending, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction %d synced: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction %d sync error: %w", id, err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// PendingTransaction is the minimal identity a sync message needs; the
// worker fetches the full row when it processes the message.
type PendingTransaction struct {
	ID      int64
	Version int64
}

func accountFromRow(row Account) core.Account {
	return core.Account{
		ID:              row.ID,
		Owner:           row.OwnerUser,
		Name:            row.AccountName,
		StartingBalance: core.Money{Cents: row.StartingBalanceCents},
		ThemeColor:      row.ThemeColor,
	}
}

func transactionFromRow(row Transaction) core.Transaction {
	return core.Transaction{
		ID:         row.ID,
		AccountID:  row.AccountID,
		OccurredAt: row.TxDatetime,
		Name:       row.TxName,
		Type:       core.TxType(row.TxType),
		Amount:     core.Money{Cents: row.AmountCents},
	}
}

func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	return errors.As(err, &se) && se.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}

func isForeignKeyViolation(err error) bool {
	var se *sqlite3.Error
	return errors.As(err, &se) && se.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
}

package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries can run inside
// or outside an explicit transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// WithTx returns queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Account mirrors a row of the accounts table.
type Account struct {
	ID                   int64
	OwnerUser            string
	AccountName          string
	StartingBalanceCents int64
	ThemeColor           string
}

// Transaction mirrors a row of the transactions table.
type Transaction struct {
	ID          int64
	AccountID   int64
	TxDatetime  time.Time
	TxName      string
	TxType      string
	AmountCents int64
	Version     int64
	SyncStatus  string
}

const createAccount = `
INSERT INTO accounts (owner_user, account_name, starting_balance_cents, theme_color)
VALUES (?, ?, ?, ?)
RETURNING id, owner_user, account_name, starting_balance_cents, theme_color
`

type CreateAccountParams struct {
	OwnerUser            string
	AccountName          string
	StartingBalanceCents int64
	ThemeColor           string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, createAccount,
		arg.OwnerUser, arg.AccountName, arg.StartingBalanceCents, arg.ThemeColor)
	var a Account
	err := row.Scan(&a.ID, &a.OwnerUser, &a.AccountName, &a.StartingBalanceCents, &a.ThemeColor)
	return a, err
}

const getAccount = `
SELECT id, owner_user, account_name, starting_balance_cents, theme_color
FROM accounts
WHERE id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id)
	var a Account
	err := row.Scan(&a.ID, &a.OwnerUser, &a.AccountName, &a.StartingBalanceCents, &a.ThemeColor)
	return a, err
}

const listAccountsByOwner = `
SELECT id, owner_user, account_name, starting_balance_cents, theme_color
FROM accounts
WHERE owner_user = ?
ORDER BY account_name ASC
`

func (q *Queries) ListAccountsByOwner(ctx context.Context, ownerUser string) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccountsByOwner, ownerUser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.OwnerUser, &a.AccountName, &a.StartingBalanceCents, &a.ThemeColor); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const renameAccount = `
UPDATE accounts SET account_name = ? WHERE id = ?
`

func (q *Queries) RenameAccount(ctx context.Context, id int64, accountName string) (int64, error) {
	res, err := q.db.ExecContext(ctx, renameAccount, accountName, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateAccountDetails = `
UPDATE accounts SET starting_balance_cents = ?, theme_color = ? WHERE id = ?
`

type UpdateAccountDetailsParams struct {
	ID                   int64
	StartingBalanceCents int64
	ThemeColor           string
}

func (q *Queries) UpdateAccountDetails(ctx context.Context, arg UpdateAccountDetailsParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountDetails,
		arg.StartingBalanceCents, arg.ThemeColor, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAccountRow = `
DELETE FROM accounts WHERE id = ?
`

func (q *Queries) DeleteAccountRow(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAccountRow, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransactionsByAccount = `
DELETE FROM transactions WHERE account_id = ?
`

func (q *Queries) DeleteTransactionsByAccount(ctx context.Context, accountID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransactionsByAccount, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listTransactionsByAccount = `
SELECT id, account_id, tx_datetime, tx_name, tx_type, amount_cents, version, sync_status
FROM transactions
WHERE account_id = ?
ORDER BY tx_datetime DESC, id DESC
`

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TxDatetime, &t.TxName, &t.TxType, &t.AmountCents, &t.Version, &t.SyncStatus); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const createTransaction = `
INSERT INTO transactions (account_id, tx_datetime, tx_name, tx_type, amount_cents)
VALUES (?, ?, ?, ?, ?)
RETURNING id, account_id, tx_datetime, tx_name, tx_type, amount_cents, version, sync_status
`

type CreateTransactionParams struct {
	AccountID   int64
	TxDatetime  time.Time
	TxName      string
	TxType      string
	AmountCents int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.AccountID, arg.TxDatetime, arg.TxName, arg.TxType, arg.AmountCents)
	var t Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.TxDatetime, &t.TxName, &t.TxType, &t.AmountCents, &t.Version, &t.SyncStatus)
	return t, err
}

const getTransaction = `
SELECT id, account_id, tx_datetime, tx_name, tx_type, amount_cents, version, sync_status
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var t Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.TxDatetime, &t.TxName, &t.TxType, &t.AmountCents, &t.Version, &t.SyncStatus)
	return t, err
}

const updateTransaction = `
UPDATE transactions
SET tx_datetime = ?, tx_name = ?, tx_type = ?, amount_cents = ?,
    version = version + 1, sync_status = 'pending'
WHERE id = ?
`

type UpdateTransactionParams struct {
	ID          int64
	TxDatetime  time.Time
	TxName      string
	TxType      string
	AmountCents int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.TxDatetime, arg.TxName, arg.TxType, arg.AmountCents, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const pendingSyncTransactions = `
SELECT id, account_id, tx_datetime, tx_name, tx_type, amount_cents, version, sync_status
FROM transactions
WHERE sync_status = 'pending'
ORDER BY id ASC
LIMIT ?
`

func (q *Queries) PendingSyncTransactions(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, pendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TxDatetime, &t.TxName, &t.TxType, &t.AmountCents, &t.Version, &t.SyncStatus); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getExportRow = `
SELECT t.id, t.version, a.owner_user, a.account_name, t.tx_datetime, t.tx_name, t.tx_type, t.amount_cents
FROM transactions t
JOIN accounts a ON a.id = t.account_id
WHERE t.id = ?
`

type ExportRow struct {
	ID          int64
	Version     int64
	OwnerUser   string
	AccountName string
	TxDatetime  time.Time
	TxName      string
	TxType      string
	AmountCents int64
}

func (q *Queries) GetExportRow(ctx context.Context, id int64) (ExportRow, error) {
	row := q.db.QueryRowContext(ctx, getExportRow, id)
	var e ExportRow
	err := row.Scan(&e.ID, &e.Version, &e.OwnerUser, &e.AccountName, &e.TxDatetime, &e.TxName, &e.TxType, &e.AmountCents)
	return e, err
}

const markTransactionSynced = `
UPDATE transactions SET sync_status = 'synced' WHERE id = ?
`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionSyncError = `
UPDATE transactions SET sync_status = 'error' WHERE id = ?
`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

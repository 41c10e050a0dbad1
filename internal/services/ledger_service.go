// Package services wires the domain rules to storage, caching, session state
// and the sync pipeline. Handlers talk to LedgerService, never to storage
// directly.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"monny/internal/core"
	"monny/internal/session"
)

// Store is the persistence surface the service depends on. Satisfied by
// storage.SQLiteRepository.
type Store interface {
	ListAccounts(ctx context.Context, owner string) (map[string]core.Account, error)
	ListAccountNames(ctx context.Context, owner string) ([]string, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	CreateAccount(ctx context.Context, owner, name, color string) (core.Account, error)
	RenameAccount(ctx context.Context, id int64, newName string) error
	UpdateAccountDetails(ctx context.Context, id int64, startingBalance core.Money, color string) error
	DeleteAccount(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error)
	AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	TransactionVersion(ctx context.Context, id int64) (int64, error)
}

// BalanceCache holds computed account balances. Both implementations are
// best-effort: a miss or backend failure just means recomputing.
type BalanceCache interface {
	GetBalance(ctx context.Context, accountID int64) (core.Money, bool)
	SetBalance(ctx context.Context, accountID int64, balance core.Money)
	Invalidate(ctx context.Context, accountID int64)
}

// EventPublisher notifies the export worker about transaction changes.
type EventPublisher interface {
	PublishSync(ctx context.Context, id, version int64) error
	PublishDelete(ctx context.Context, id int64) error
}

type LedgerService struct {
	store    Store
	sessions *session.Manager
	cache    BalanceCache
	events   EventPublisher
}

// NewLedgerService builds the service. Cache and events may be nil; both
// degrade to no-ops so the web service runs without Redis or RabbitMQ.
func NewLedgerService(store Store, sessions *session.Manager, cache BalanceCache, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:    store,
		sessions: sessions,
		cache:    cache,
		events:   events,
	}
}

// AccountsView is the account listing plus the resolved selection. Balances
// is aligned with Accounts.
type AccountsView struct {
	Accounts []core.Account
	Balances []core.Money
	Selected string
}

// Overview is the cross-account aggregate shown on the summary page.
type Overview struct {
	Summaries []core.AccountSummary
	NetWorth  core.Money
	Selected  string
}

// Accounts lists the owner's accounts in name order and resolves which one is
// currently selected.
func (s *LedgerService) Accounts(ctx context.Context, owner string) (AccountsView, error) {
	byName, err := s.store.ListAccounts(ctx, owner)
	if err != nil {
		return AccountsView{}, err
	}
	names, err := s.store.ListAccountNames(ctx, owner)
	if err != nil {
		return AccountsView{}, err
	}

	accounts := make([]core.Account, 0, len(names))
	balances := make([]core.Money, 0, len(names))
	for _, name := range names {
		account := byName[name]
		balance, err := s.balanceFor(ctx, account)
		if err != nil {
			return AccountsView{}, err
		}
		accounts = append(accounts, account)
		balances = append(balances, balance)
	}

	return AccountsView{
		Accounts: accounts,
		Balances: balances,
		Selected: s.sessions.Resolve(owner, names),
	}, nil
}

// CreateAccount makes a new empty account and selects it.
func (s *LedgerService) CreateAccount(ctx context.Context, owner, name string) (core.Account, error) {
	candidate := core.Account{Owner: owner, Name: name}
	if err := candidate.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.checkNameFree(ctx, owner, name); err != nil {
		return core.Account{}, err
	}

	account, err := s.store.CreateAccount(ctx, owner, name, core.DefaultThemeColor)
	if err != nil {
		return core.Account{}, err
	}

	s.sessions.Select(owner, account.Name)
	slog.InfoContext(ctx, "Account created", "owner", owner, "account_id", account.ID)
	return account, nil
}

// RenameAccount changes an account's name and moves the selection with it.
func (s *LedgerService) RenameAccount(ctx context.Context, owner string, id int64, newName string) error {
	account, err := s.ownedAccount(ctx, owner, id)
	if err != nil {
		return err
	}

	candidate := core.Account{Owner: owner, Name: newName}
	if err := candidate.Validate(); err != nil {
		return err
	}
	if newName == account.Name {
		return nil
	}
	if err := s.checkNameFree(ctx, owner, newName); err != nil {
		return err
	}

	if err := s.store.RenameAccount(ctx, id, newName); err != nil {
		return err
	}

	s.sessions.Rename(owner, account.Name, newName)
	return nil
}

// UpdateAccountDetails sets the starting balance and theme color.
func (s *LedgerService) UpdateAccountDetails(ctx context.Context, owner string, id int64, startingBalance core.Money, color string) error {
	if _, err := s.ownedAccount(ctx, owner, id); err != nil {
		return err
	}
	if color == "" {
		color = core.DefaultThemeColor
	}
	if err := s.store.UpdateAccountDetails(ctx, id, startingBalance, color); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteAccount removes an account and all its transactions.
func (s *LedgerService) DeleteAccount(ctx context.Context, owner string, id int64) error {
	account, err := s.ownedAccount(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.sessions.Forget(owner, account.Name)
	slog.InfoContext(ctx, "Account deleted", "owner", owner, "account_id", id)
	return nil
}

// SelectAccount records an explicit selection after checking the name exists.
func (s *LedgerService) SelectAccount(ctx context.Context, owner, name string) error {
	names, err := s.store.ListAccountNames(ctx, owner)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			s.sessions.Select(owner, name)
			return nil
		}
	}
	return fmt.Errorf("account %q: %w", name, core.ErrNotFound)
}

// ClearSelection drops the owner's account selection, used on logout so the
// next session starts from the default account again.
func (s *LedgerService) ClearSelection(owner string) {
	s.sessions.Clear(owner)
}

// Transactions lists an account's transactions newest first.
func (s *LedgerService) Transactions(ctx context.Context, owner string, accountID int64) ([]core.Transaction, error) {
	if _, err := s.ownedAccount(ctx, owner, accountID); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, accountID)
}

// AddTransaction records a new transaction. The stored amount's sign is
// derived from the type, so callers pass the positive magnitude users typed.
func (s *LedgerService) AddTransaction(ctx context.Context, owner string, accountID int64, occurredAt time.Time, name string, typ core.TxType, magnitudeCents int64) (core.Transaction, error) {
	if _, err := s.ownedAccount(ctx, owner, accountID); err != nil {
		return core.Transaction{}, err
	}

	signed, err := typ.SignedCents(magnitudeCents)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		AccountID:  accountID,
		OccurredAt: occurredAt,
		Name:       name,
		Type:       typ,
		Amount:     core.Money{Cents: signed},
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.AddTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	s.invalidate(ctx, accountID)
	s.publishSync(ctx, created.ID)
	return created, nil
}

// UpdateTransaction rewrites an existing transaction's fields.
func (s *LedgerService) UpdateTransaction(ctx context.Context, owner string, id int64, occurredAt time.Time, name string, typ core.TxType, magnitudeCents int64) error {
	existing, err := s.ownedTransaction(ctx, owner, id)
	if err != nil {
		return err
	}

	signed, err := typ.SignedCents(magnitudeCents)
	if err != nil {
		return err
	}

	tx := core.Transaction{
		ID:         id,
		AccountID:  existing.AccountID,
		OccurredAt: occurredAt,
		Name:       name,
		Type:       typ,
		Amount:     core.Money{Cents: signed},
	}
	if err := tx.Validate(); err != nil {
		return err
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return err
	}

	s.invalidate(ctx, existing.AccountID)
	s.publishSync(ctx, id)
	return nil
}

// DeleteTransaction removes a transaction.
func (s *LedgerService) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	existing, err := s.ownedTransaction(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, existing.AccountID)
	if s.events != nil {
		if err := s.events.PublishDelete(ctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to publish delete event", "transaction_id", id, "error", err)
		}
	}
	return nil
}

// AccountSummary computes one account's totals and balance.
func (s *LedgerService) AccountSummary(ctx context.Context, owner string, accountID int64) (core.AccountSummary, error) {
	account, err := s.ownedAccount(ctx, owner, accountID)
	if err != nil {
		return core.AccountSummary{}, err
	}
	return s.summarize(ctx, account)
}

// Balance returns one account's balance, from cache when possible.
func (s *LedgerService) Balance(ctx context.Context, owner string, accountID int64) (core.Money, error) {
	account, err := s.ownedAccount(ctx, owner, accountID)
	if err != nil {
		return core.Money{}, err
	}
	return s.balanceFor(ctx, account)
}

func (s *LedgerService) balanceFor(ctx context.Context, account core.Account) (core.Money, error) {
	if s.cache != nil {
		if balance, ok := s.cache.GetBalance(ctx, account.ID); ok {
			return balance, nil
		}
	}
	summary, err := s.summarize(ctx, account)
	if err != nil {
		return core.Money{}, err
	}
	return summary.Balance, nil
}

// NetWorth computes the owner's cross-account overview. Per-account summaries
// are computed concurrently; the result keeps the accounts' name order.
func (s *LedgerService) NetWorth(ctx context.Context, owner string) (Overview, error) {
	view, err := s.Accounts(ctx, owner)
	if err != nil {
		return Overview{}, err
	}

	summaries := make([]core.AccountSummary, len(view.Accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, account := range view.Accounts {
		g.Go(func() error {
			summary, err := s.summarize(gctx, account)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	return Overview{
		Summaries: summaries,
		NetWorth:  core.NetWorth(summaries),
		Selected:  view.Selected,
	}, nil
}

func (s *LedgerService) summarize(ctx context.Context, account core.Account) (core.AccountSummary, error) {
	txs, err := s.store.ListTransactions(ctx, account.ID)
	if err != nil {
		return core.AccountSummary{}, err
	}
	summary := core.Summarize(account, txs)
	if s.cache != nil {
		s.cache.SetBalance(ctx, account.ID, summary.Balance)
	}
	return summary, nil
}

// ownedAccount loads an account and hides other owners' accounts behind
// ErrNotFound, so the API never reveals that a foreign id exists.
func (s *LedgerService) ownedAccount(ctx context.Context, owner string, id int64) (core.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	if account.Owner != owner {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return account, nil
}

func (s *LedgerService) ownedTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.ownedAccount(ctx, owner, tx.AccountID); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// checkNameFree is the caller-side duplicate check; the UNIQUE constraint in
// storage backstops the race between check and insert.
func (s *LedgerService) checkNameFree(ctx context.Context, owner, name string) error {
	names, err := s.store.ListAccountNames(ctx, owner)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return fmt.Errorf("account %q: %w", name, core.ErrDuplicateName)
		}
	}
	return nil
}

func (s *LedgerService) invalidate(ctx context.Context, accountID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, accountID)
	}
}

// publishSync reads the row's current version and publishes it. Best-effort:
// the row stays flagged pending and the worker's periodic sweep catches it if
// the publish is lost.
func (s *LedgerService) publishSync(ctx context.Context, id int64) {
	if s.events == nil {
		return
	}
	version, err := s.store.TransactionVersion(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read transaction version for sync", "transaction_id", id, "error", err)
		return
	}
	if err := s.events.PublishSync(ctx, id, version); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync event", "transaction_id", id, "error", err)
	}
}

package core

// AccountSummary aggregates one account's activity: total income, total
// expense, and the resulting balance.
type AccountSummary struct {
	Account Account
	Income  Money
	Expense Money
	Balance Money
}

// AccountBalance derives an account balance from its starting balance and
// the signed sum of its transactions. The sum is commutative, so the result
// does not depend on transaction order; with no transactions the balance is
// the starting balance.
func AccountBalance(start Money, txs []Transaction) Money {
	total := start.Cents
	for _, tx := range txs {
		total += tx.Amount.Cents
	}
	return Money{Cents: total}
}

// Summarize computes the per-account totals shown next to the balance.
func Summarize(a Account, txs []Transaction) AccountSummary {
	s := AccountSummary{Account: a}
	for _, tx := range txs {
		if tx.Amount.Cents > 0 {
			s.Income.Cents += tx.Amount.Cents
		} else {
			s.Expense.Cents += tx.Amount.Cents
		}
	}
	s.Balance = Money{Cents: a.StartingBalance.Cents + s.Income.Cents + s.Expense.Cents}
	return s
}

// NetWorth sums balances across accounts. Each account's balance is computed
// independently; an empty account set nets to zero.
func NetWorth(summaries []AccountSummary) Money {
	var total int64
	for _, s := range summaries {
		total += s.Balance.Cents
	}
	return Money{Cents: total}
}

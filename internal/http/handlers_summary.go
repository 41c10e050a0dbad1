package http

import (
	"net/http"

	"monny/internal/auth"
	"monny/internal/core"
)

type accountSummaryResponse struct {
	Account accountResponse `json:"account"`
	Income  string          `json:"income"`
	Expense string          `json:"expense"`
	Balance string          `json:"balance"`
}

type summaryResponse struct {
	Accounts []accountSummaryResponse `json:"accounts"`
	NetWorth string                   `json:"net_worth"`
	Selected string                   `json:"selected"`
}

func summaryToResponse(s core.AccountSummary) accountSummaryResponse {
	return accountSummaryResponse{
		Account: accountToResponse(s.Account),
		Income:  s.Income.String(),
		Expense: s.Expense.String(),
		Balance: s.Balance.String(),
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	overview, err := s.ledger.NetWorth(r.Context(), owner)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := summaryResponse{
		Accounts: make([]accountSummaryResponse, 0, len(overview.Summaries)),
		NetWorth: overview.NetWorth.String(),
		Selected: overview.Selected,
	}
	for _, summary := range overview.Summaries {
		resp.Accounts = append(resp.Accounts, summaryToResponse(summary))
	}
	respondJSON(r.Context(), w, http.StatusOK, resp)
}

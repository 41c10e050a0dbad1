package http

import (
	"net/http"

	"monny/internal/auth"
	"monny/internal/core"
)

type accountResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	StartingBalance string `json:"starting_balance"`
	ThemeColor      string `json:"theme_color"`
}

type listedAccountResponse struct {
	accountResponse
	Balance string `json:"balance"`
}

type accountsResponse struct {
	Accounts []listedAccountResponse `json:"accounts"`
	Selected string                  `json:"selected"`
}

func accountToResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:              a.ID,
		Name:            a.Name,
		StartingBalance: a.StartingBalance.String(),
		ThemeColor:      a.ThemeColor,
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	view, err := s.ledger.Accounts(r.Context(), owner)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := accountsResponse{
		Accounts: make([]listedAccountResponse, 0, len(view.Accounts)),
		Selected: view.Selected,
	}
	for i, a := range view.Accounts {
		resp.Accounts = append(resp.Accounts, listedAccountResponse{
			accountResponse: accountToResponse(a),
			Balance:         view.Balances[i].String(),
		})
	}
	respondJSON(r.Context(), w, http.StatusOK, resp)
}

type createAccountRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	account, err := s.ledger.CreateAccount(r.Context(), owner, req.Name)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, accountToResponse(account))
}

type renameAccountRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleRenameAccount(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	var req renameAccountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := s.ledger.RenameAccount(r.Context(), owner, id, req.Name); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusNoContent, nil)
}

type updateAccountRequest struct {
	StartingBalance string `json:"starting_balance" validate:"required"`
	ThemeColor      string `json:"theme_color" validate:"omitempty,hexcolor"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	var req updateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	cents, err := core.ParseSignedDecimalToCents(req.StartingBalance)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := s.ledger.UpdateAccountDetails(r.Context(), owner, id, core.Money{Cents: cents}, req.ThemeColor); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := s.ledger.DeleteAccount(r.Context(), owner, id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusNoContent, nil)
}

type selectAccountRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleSelectAccount(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	var req selectAccountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := s.ledger.SelectAccount(r.Context(), owner, req.Name); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusNoContent, nil)
}

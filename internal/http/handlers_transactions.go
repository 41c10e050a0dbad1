package http

import (
	"net/http"
	"time"

	"monny/internal/auth"
	"monny/internal/core"
)

type transactionResponse struct {
	ID         int64  `json:"id"`
	AccountID  int64  `json:"account_id"`
	OccurredAt string `json:"occurred_at"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
}

func transactionToResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         tx.ID,
		AccountID:  tx.AccountID,
		OccurredAt: tx.OccurredAt.UTC().Format(time.RFC3339),
		Name:       tx.Name,
		Type:       string(tx.Type),
		Amount:     tx.Amount.String(),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	accountID, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	txs, err := s.ledger.Transactions(r.Context(), owner, accountID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, transactionToResponse(tx))
	}
	respondJSON(r.Context(), w, http.StatusOK, resp)
}

type transactionRequest struct {
	OccurredAt string `json:"occurred_at" validate:"omitempty"`
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=income expense"`
	Amount     string `json:"amount" validate:"required"`
}

// occurredAt parses the request timestamp, defaulting to now.
func (req transactionRequest) occurredAt() (time.Time, error) {
	if req.OccurredAt == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		return time.Time{}, core.ErrInvalidDatetime
	}
	return t, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	accountID, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	occurredAt, err := req.occurredAt()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	tx, err := s.ledger.AddTransaction(r.Context(), owner, accountID, occurredAt, req.Name, core.TxType(req.Type), cents)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, transactionToResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	occurredAt, err := req.occurredAt()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := s.ledger.UpdateTransaction(r.Context(), owner, id, occurredAt, req.Name, core.TxType(req.Type), cents); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.Username(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), owner, id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusNoContent, nil)
}

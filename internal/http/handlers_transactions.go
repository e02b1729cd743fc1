package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

type transactionList struct {
	Success bool               `json:"success"`
	Data    []core.Transaction `json:"data"`
	Count   int                `json:"count"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	var txs []core.Transaction
	switch r.URL.Query().Get("kind") {
	case string(core.Income):
		txs = eng.IncomeOf()
	case string(core.Expense):
		txs = eng.ExpensesOf()
	case "":
		txs = eng.Transactions()
	default:
		writeError(w, http.StatusUnprocessableEntity, "kind must be income or expense")
		return
	}

	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionList{Success: true, Data: txs, Count: len(txs)})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	var in engine.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Description = sanitizeInput(in.Description)
	in.Category = sanitizeInput(in.Category)

	writeResult(w, eng.Create(r.Context(), in), http.StatusCreated)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	var patch core.TransactionPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Description != nil {
		clean := sanitizeInput(*patch.Description)
		patch.Description = &clean
	}
	if patch.Category != nil {
		clean := sanitizeInput(*patch.Category)
		patch.Category = &clean
	}

	writeResult(w, eng.Update(r.Context(), id, patch), http.StatusOK)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	writeResult(w, eng.Delete(r.Context(), id), http.StatusOK)
}

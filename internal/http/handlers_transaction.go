package http

import (
	"net/http"
	"strconv"
	"strings"

	"duit/internal/core"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	s.listTransactions(w, r)
}

// handleTransactionSubtree routes /api/transactions/batch,
// /api/transactions/monthly-summary and /api/transactions/{id}.
func (s *Server) handleTransactionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	switch rest {
	case "batch":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		s.createBatch(w, r)
	case "monthly-summary":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		s.monthlySummary(w, r)
	default:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		switch r.Method {
		case http.MethodPut:
			s.updateTransaction(w, r, id)
		case http.MethodDelete:
			s.deleteTransaction(w, r, id)
		default:
			methodNotAllowed(w, "PUT, DELETE")
		}
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := core.ParseDate(q.Get("start_date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := core.ParseDate(q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start.Time) {
		writeError(w, http.StatusUnprocessableEntity, "end_date must not precede start_date")
		return
	}

	transactions, err := s.transactions.GetByDateRange(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

type batchRequest struct {
	Transactions []core.TransactionDraft `json:"transactions"`
}

type batchResponse struct {
	Created      int                `json:"created"`
	Failed       int                `json:"failed"`
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "transactions must not be empty")
		return
	}

	result, created := s.transactions.CreateBatch(r.Context(), req.Transactions)
	if created == nil {
		created = []core.Transaction{}
	}
	writeJSON(w, http.StatusCreated, batchResponse{
		Created:      result.Created,
		Failed:       result.Failed,
		Transactions: created,
	})
}

func (s *Server) monthlySummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1 {
		writeError(w, http.StatusUnprocessableEntity, "year must be a positive integer")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusUnprocessableEntity, "month must be between 1 and 12")
		return
	}

	rows, err := s.transactions.MonthlySummary(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	var patch core.TransactionPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.transactions.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

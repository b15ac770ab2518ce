package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/faloosh2002/financial-control-platform/internal/core"
)

type incomeDTO struct {
	ID     int64      `json:"id"`
	Date   string     `json:"date"`
	Amount core.Money `json:"amount"`
	Source string     `json:"source"`
}

type expenseDTO struct {
	ID          int64      `json:"id"`
	Date        string     `json:"date"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
}

type debtDTO struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Balance    core.Money `json:"balance"`
	MinPayment core.Money `json:"minPayment"`
}

type createIncomeRequest struct {
	Date   string     `json:"date"`
	Amount core.Money `json:"amount"`
	Source string     `json:"source"`
}

type createExpenseRequest struct {
	Date        string     `json:"date"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
}

type createDebtRequest struct {
	Name       string     `json:"name"`
	Balance    core.Money `json:"balance"`
	MinPayment core.Money `json:"minPayment"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// handleDecodeError distinguishes malformed JSON (400) from well-formed JSON
// carrying invalid domain values (422).
func handleDecodeError(w http.ResponseWriter, err error) {
	if isValidationError(err) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.ListIncomes(r.Context(), userIDFrom(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "List incomes failed", "error", err)
		writeError(w, err)
		return
	}

	out := make([]incomeDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, incomeDTO{ID: e.ID, Date: e.Date.String(), Amount: e.Amount, Source: e.Source})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req createIncomeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := s.ledger.AddIncome(r.Context(), userIDFrom(r), core.IncomeEntry{
		Date:   date,
		Amount: req.Amount,
		Source: sanitizeInput(req.Source),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	if err := s.ledger.DeleteIncome(r.Context(), userIDFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.ListExpenses(r.Context(), userIDFrom(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		writeError(w, err)
		return
	}

	out := make([]expenseDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, expenseDTO{
			ID:          e.ID,
			Date:        e.Date.String(),
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			Kind:        string(e.Kind),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := s.ledger.AddExpense(r.Context(), userIDFrom(r), core.ExpenseEntry{
		Date:        date,
		Amount:      req.Amount,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Kind:        core.ExpenseKind(req.Kind),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), userIDFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.ledger.ListDebts(r.Context(), userIDFrom(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "List debts failed", "error", err)
		writeError(w, err)
		return
	}

	out := make([]debtDTO, 0, len(debts))
	for _, d := range debts {
		out = append(out, debtDTO{ID: d.ID, Name: d.Name, Balance: d.Balance, MinPayment: d.MinPayment})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req createDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	id, err := s.ledger.AddDebt(r.Context(), userIDFrom(r), core.DebtObligation{
		Name:       sanitizeInput(req.Name),
		Balance:    req.Balance,
		MinPayment: req.MinPayment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	if err := s.ledger.DeleteDebt(r.Context(), userIDFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

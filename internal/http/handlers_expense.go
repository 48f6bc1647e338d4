package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
	"github.com/splitpro/splitpro-backend/internal/usecase/expense"
	"github.com/splitpro/splitpro-backend/internal/usecase/splitter"
)

type splitSpecRequest struct {
	UserID string          `json:"user_id"`
	Type   string          `json:"type"`
	Value  decimal.Decimal `json:"value"`
}

type createExpenseRequest struct {
	Description string             `json:"description"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Currency    string             `json:"currency"`
	GroupID     string             `json:"group_id"`
	Category    string             `json:"category"`
	Notes       string             `json:"notes"`
	OccurredAt  *time.Time         `json:"occurred_at"`
	Splits      []splitSpecRequest `json:"splits"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	var req createExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := expense.CreateExpenseInput{
		Description: req.Description,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		GroupID:     req.GroupID,
		Category:    domain.Category(req.Category),
		Notes:       req.Notes,
		Splits:      make([]splitter.Spec, 0, len(req.Splits)),
	}
	if req.OccurredAt != nil {
		input.OccurredAt = *req.OccurredAt
	}
	for _, spec := range req.Splits {
		input.Splits = append(input.Splits, splitter.Spec{
			UserID: spec.UserID,
			Type:   domain.SplitType(spec.Type),
			Value:  spec.Value,
		})
	}

	e, err := s.expenses.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	e, err := s.expenses.GetDetails(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	if err := s.expenses.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type expenseListResponse struct {
	Expenses []expenseResponse `json:"expenses"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	expenses, total, err := s.expenses.ListUserExpenses(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseListResponse{
		Expenses: toExpenseResponses(expenses),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

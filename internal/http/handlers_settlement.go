package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
	"github.com/splitpro/splitpro-backend/internal/usecase/settlement"
)

type recordSettlementRequest struct {
	ToUserID string          `json:"to_user_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	GroupID  string          `json:"group_id"`
	Note     string          `json:"note"`
	Method   string          `json:"method"`
}

func (s *Server) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	var req recordSettlementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stl, err := s.settlements.Record(r.Context(), userID, settlement.RecordSettlementInput{
		ToUserID: req.ToUserID,
		Amount:   req.Amount,
		Currency: req.Currency,
		GroupID:  req.GroupID,
		Note:     req.Note,
		Method:   domain.SettlementMethod(req.Method),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementResponse(stl))
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	settlements, err := s.settlements.ListUserSettlements(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]settlementResponse, 0, len(settlements))
	for _, stl := range settlements {
		out = append(out, toSettlementResponse(stl))
	}
	writeJSON(w, http.StatusOK, out)
}

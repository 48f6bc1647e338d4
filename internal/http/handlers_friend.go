package http

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type addFriendRequest struct {
	FriendID string `json:"friend_id"`
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	var req addFriendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	edge, err := s.friends.AddFriend(r.Context(), userID, req.FriendID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFriendResponse(edge))
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	if err := s.friends.RemoveFriend(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	edges, err := s.friends.ListFriends(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	friends := make([]friendResponse, 0, len(edges))
	for _, edge := range edges {
		friends = append(friends, toFriendResponse(edge))
	}
	writeJSON(w, http.StatusOK, friends)
}

type friendBalanceResponse struct {
	FriendID   string          `json:"friend_id"`
	FriendName string          `json:"friend_name"`
	Balance    decimal.Decimal `json:"balance"`
}

type balanceSummaryResponse struct {
	Friends        []friendBalanceResponse `json:"friends"`
	TotalOwed      decimal.Decimal         `json:"total_owed"`
	TotalOwedToYou decimal.Decimal         `json:"total_owed_to_you"`
	NetBalance     decimal.Decimal         `json:"net_balance"`
}

func (s *Server) handleBalanceSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	summary, err := s.balances.GetUserBalances(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := balanceSummaryResponse{
		Friends:        make([]friendBalanceResponse, 0, len(summary.Friends)),
		TotalOwed:      summary.TotalOwed,
		TotalOwedToYou: summary.TotalOwedToYou,
		NetBalance:     summary.NetBalance,
	}
	for _, fb := range summary.Friends {
		resp.Friends = append(resp.Friends, friendBalanceResponse{
			FriendID:   fb.FriendID,
			FriendName: fb.FriendName,
			Balance:    fb.Balance,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type balanceResponse struct {
	FriendID string          `json:"friend_id"`
	Balance  decimal.Decimal `json:"balance"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}
	friendID := r.PathValue("friendID")
	bal, err := s.ledger.GetBalance(r.Context(), userID, friendID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{FriendID: friendID, Balance: bal})
}

package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

type splitResponse struct {
	UserID     string          `json:"user_id"`
	UserName   string          `json:"user_name"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	AmountOwed decimal.Decimal `json:"amount_owed"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	PayerID     string          `json:"payer_id"`
	PayerName   string          `json:"payer_name"`
	GroupID     string          `json:"group_id,omitempty"`
	GroupName   string          `json:"group_name,omitempty"`
	Splits      []splitResponse `json:"splits"`
	Category    string          `json:"category"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	OccurredAt  time.Time       `json:"occurred_at"`
	IsBalanced  bool            `json:"is_balanced"`
}

func toExpenseResponse(e *domain.Expense) expenseResponse {
	splits := make([]splitResponse, 0, len(e.Splits))
	for _, s := range e.Splits {
		splits = append(splits, splitResponse{
			UserID:     s.UserID,
			UserName:   s.UserName,
			Type:       string(s.Type),
			Value:      s.Value,
			AmountOwed: s.AmountOwed,
		})
	}
	return expenseResponse{
		ID:          e.ID,
		Description: e.Description,
		TotalAmount: e.TotalAmount,
		Currency:    e.Currency,
		PayerID:     e.PayerID,
		PayerName:   e.PayerName,
		GroupID:     e.GroupID,
		GroupName:   e.GroupName,
		Splits:      splits,
		Category:    string(e.Category),
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		OccurredAt:  e.OccurredAt,
		IsBalanced:  e.IsBalanced(),
	}
}

func toExpenseResponses(expenses []*domain.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

type friendResponse struct {
	FriendID string          `json:"friend_id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Balance  decimal.Decimal `json:"balance"`
	Since    time.Time       `json:"since"`
}

func toFriendResponse(edge *domain.BalanceEdge) friendResponse {
	return friendResponse{
		FriendID: edge.CounterpartID,
		Name:     edge.CounterpartName,
		Email:    edge.CounterpartEmail,
		Balance:  edge.Balance,
		Since:    edge.CreatedAt,
	}
}

type groupMemberResponse struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

type groupResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	CreatedBy   string                `json:"created_by"`
	Members     []groupMemberResponse `json:"members"`
	CreatedAt   time.Time             `json:"created_at"`
}

func toGroupResponse(g *domain.Group) groupResponse {
	members := make([]groupMemberResponse, 0, len(g.Members))
	for _, m := range g.Members {
		if !m.Active {
			continue
		}
		members = append(members, groupMemberResponse{
			UserID:   m.UserID,
			Name:     m.UserName,
			Email:    m.UserEmail,
			JoinedAt: m.JoinedAt,
		})
	}
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}

type settlementResponse struct {
	ID         string          `json:"id"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	GroupID    string          `json:"group_id,omitempty"`
	Note       string          `json:"note,omitempty"`
	Method     string          `json:"method"`
	SettledAt  time.Time       `json:"settled_at"`
}

func toSettlementResponse(s *domain.Settlement) settlementResponse {
	return settlementResponse{
		ID:         s.ID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		Currency:   s.Currency,
		GroupID:    s.GroupID,
		Note:       s.Note,
		Method:     string(s.Method),
		SettledAt:  s.SettledAt,
	}
}

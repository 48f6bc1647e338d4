package domain

import "time"

// GroupMember is one user's membership in a group. Leaving a group
// deactivates the membership rather than removing it.
type GroupMember struct {
	UserID    string
	UserName  string
	UserEmail string
	JoinedAt  time.Time
	Active    bool
}

// Group is a named set of users who share expenses.
type Group struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	Members     []GroupMember
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Active      bool
}

// IsMember reports whether the user is an active member of the group.
func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID && m.Active {
			return true
		}
	}
	return false
}

// AddMember appends an active membership for the user.
func (g *Group) AddMember(userID, userName, userEmail string) {
	g.Members = append(g.Members, GroupMember{
		UserID:    userID,
		UserName:  userName,
		UserEmail: userEmail,
		JoinedAt:  time.Now(),
		Active:    true,
	})
}

// Validate ensures the group adheres to domain rules.
func (g *Group) Validate() error {
	if len(g.Name) < 2 {
		return NewValidationError("group name must be at least 2 characters")
	}
	if g.CreatedBy == "" {
		return NewValidationError("group creator is required")
	}
	return nil
}

package domain

import "time"

// User represents a registered account. Authentication is handled upstream;
// the core only needs identity and display data.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Validate ensures the user adheres to domain rules.
func (u *User) Validate() error {
	if u.Name == "" {
		return NewValidationError("user name is required")
	}
	if u.Email == "" {
		return NewValidationError("user email is required")
	}
	return nil
}

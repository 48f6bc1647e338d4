package domain

import "fmt"

// ValidationError reports a malformed request: bad split composition,
// over-allocated AMOUNT/PERCENT values, missing required fields.
// It is always reported to the caller and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown user, group, expense or balance edge.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError builds a NotFoundError for the given resource kind and id.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AuthorizationError reports a privileged action attempted by a user who is
// not entitled to it (non-member, non-payer, uninvolved reader).
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// NewAuthorizationError builds an AuthorizationError with a formatted reason.
func NewAuthorizationError(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

// ConsistencyFault reports a violated ledger invariant: the two directions of
// a balance pair no longer negate each other, or a transfer was only partially
// applied. It indicates a correctness bug or crash-recovery gap, not a bad
// request, and must be surfaced to operators rather than end users.
type ConsistencyFault struct {
	OwnerID       string
	CounterpartID string
	Detail        string
}

func (e *ConsistencyFault) Error() string {
	return fmt.Sprintf("ledger consistency fault between %s and %s: %s",
		e.OwnerID, e.CounterpartID, e.Detail)
}

package domain

import (
	"context"
	"time"
)

// AuthorizationTransactionTTL bounds how long a consent flow may stay
// in flight before its state token is rejected.
const AuthorizationTransactionTTL = 10 * time.Minute

// AuthorizationTransaction binds a CSRF state token to one in-flight
// consent flow. It is consumed exactly once by the callback.
type AuthorizationTransaction struct {
	AccountID string
	State     string
	CreatedAt time.Time
}

func (t AuthorizationTransaction) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) > AuthorizationTransactionTTL
}

type AuthorizationTransactionStore interface {
	SaveTransaction(ctx context.Context, tx AuthorizationTransaction) error

	// ConsumeTransaction atomically loads and deletes the pending transaction
	// for the account. It returns ErrStateMismatch when no live transaction
	// exists or the stored state differs.
	ConsumeTransaction(ctx context.Context, accountID, state string) (AuthorizationTransaction, error)
}

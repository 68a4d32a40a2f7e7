// Package redis implements the authorization-transaction store on Redis.
// Transactions are short-lived and single-use, so a TTL'd key per account is
// the whole model.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "google:oauth:state:"

type TransactionStore struct {
	client *redis.Client
}

func NewTransactionStore(client *redis.Client) *TransactionStore {
	return &TransactionStore{client: client}
}

// Connect creates a redis client and verifies connectivity.
func Connect(ctx context.Context, address, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

type storedTransaction struct {
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *TransactionStore) SaveTransaction(ctx context.Context, tx domain.AuthorizationTransaction) error {
	payload, err := json.Marshal(storedTransaction{
		State:     tx.State,
		CreatedAt: tx.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	// Overwrites any previous pending flow for the account; the key expires
	// with the transaction TTL so stale flows clean themselves up.
	err = s.client.Set(ctx, keyPrefix+tx.AccountID, payload, domain.AuthorizationTransactionTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

func (s *TransactionStore) ConsumeTransaction(ctx context.Context, accountID, state string) (domain.AuthorizationTransaction, error) {
	// GETDEL makes consumption single-use regardless of the state check
	// below; a second callback with the same state finds nothing.
	payload, err := s.client.GetDel(ctx, keyPrefix+accountID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AuthorizationTransaction{}, domain.ErrStateMismatch
		}

		return domain.AuthorizationTransaction{}, fmt.Errorf("failed to load transaction: %w", err)
	}

	var stored storedTransaction
	if err := json.Unmarshal(payload, &stored); err != nil {
		return domain.AuthorizationTransaction{}, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}

	if stored.State != state {
		return domain.AuthorizationTransaction{}, domain.ErrStateMismatch
	}

	return domain.AuthorizationTransaction{
		AccountID: accountID,
		State:     stored.State,
		CreatedAt: stored.CreatedAt,
	}, nil
}

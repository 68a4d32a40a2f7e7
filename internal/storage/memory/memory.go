// Package memory provides in-memory store implementations used in dev mode
// (no DATABASE_URL / REDIS_ADDRESS configured) and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"
)

type CredentialStore struct {
	mu          sync.RWMutex
	credentials map[string]domain.AccountCredential
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		credentials: make(map[string]domain.AccountCredential),
	}
}

func (s *CredentialStore) GetCredential(ctx context.Context, accountID string) (domain.AccountCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, ok := s.credentials[accountID]
	if !ok {
		return domain.AccountCredential{}, domain.ErrCredentialNotFound
	}

	return credential, nil
}

func (s *CredentialStore) UpsertCredential(ctx context.Context, credential domain.AccountCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[credential.AccountID] = credential

	return nil
}

func (s *CredentialStore) UpdateTokens(ctx context.Context, accountID, accessToken, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[accountID]
	if !ok {
		return domain.ErrCredentialNotFound
	}

	credential.AccessToken = accessToken
	credential.AccessTokenExpiresAt = expiresAt
	if refreshToken != "" {
		credential.RefreshToken = refreshToken
	}
	credential.UpdatedAt = time.Now()

	s.credentials[accountID] = credential

	return nil
}

func (s *CredentialStore) SetSelectedBusiness(ctx context.Context, accountID, businessID, businessName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[accountID]
	if !ok {
		return domain.ErrCredentialNotFound
	}

	credential.SelectedBusinessID = businessID
	credential.SelectedBusinessName = businessName
	credential.UpdatedAt = time.Now()

	s.credentials[accountID] = credential

	return nil
}

func (s *CredentialStore) SetLastSyncedAt(ctx context.Context, accountID string, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[accountID]
	if !ok {
		return domain.ErrCredentialNotFound
	}

	credential.LastSyncedAt = &syncedAt

	s.credentials[accountID] = credential

	return nil
}

func (s *CredentialStore) DeleteCredential(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.credentials[accountID]; !ok {
		return domain.ErrCredentialNotFound
	}

	delete(s.credentials, accountID)

	return nil
}

type TransactionStore struct {
	mu           sync.Mutex
	transactions map[string]domain.AuthorizationTransaction
	now          func() time.Time
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		transactions: make(map[string]domain.AuthorizationTransaction),
		now:          time.Now,
	}
}

// NewTransactionStoreWithClock is used by tests to control TTL expiry.
func NewTransactionStoreWithClock(now func() time.Time) *TransactionStore {
	store := NewTransactionStore()
	store.now = now

	return store
}

func (s *TransactionStore) SaveTransaction(ctx context.Context, tx domain.AuthorizationTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One pending flow per account; restarting consent replaces the old one.
	s.transactions[tx.AccountID] = tx

	return nil
}

func (s *TransactionStore) ConsumeTransaction(ctx context.Context, accountID, state string) (domain.AuthorizationTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[accountID]
	if !ok {
		return domain.AuthorizationTransaction{}, domain.ErrStateMismatch
	}

	delete(s.transactions, accountID)

	if tx.Expired(s.now()) || tx.State != state {
		return domain.AuthorizationTransaction{}, domain.ErrStateMismatch
	}

	return tx, nil
}

type ReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]map[string]domain.Review // accountID -> google_review_id -> review
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		reviews: make(map[string]map[string]domain.Review),
	}
}

func (s *ReviewStore) UpsertReview(ctx context.Context, review domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accountReviews, ok := s.reviews[review.AccountID]
	if !ok {
		accountReviews = make(map[string]domain.Review)
		s.reviews[review.AccountID] = accountReviews
	}

	if existing, ok := accountReviews[review.GoogleReviewID]; ok {
		review.ID = existing.ID
		if review.ReplyComment == "" {
			review.ReplyComment = existing.ReplyComment
			review.RepliedAt = existing.RepliedAt
		}
	}

	accountReviews[review.GoogleReviewID] = review

	return nil
}

func (s *ReviewStore) GetReview(ctx context.Context, accountID, reviewID string) (domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, review := range s.reviews[accountID] {
		if review.ID == reviewID {
			return review, nil
		}
	}

	return domain.Review{}, domain.ErrReviewNotFound
}

func (s *ReviewStore) ListReviews(ctx context.Context, accountID string) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := []domain.Review{}
	for _, review := range s.reviews[accountID] {
		reviews = append(reviews, review)
	}

	return reviews, nil
}

func (s *ReviewStore) SaveReply(ctx context.Context, accountID, reviewID, comment string, repliedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, review := range s.reviews[accountID] {
		if review.ID == reviewID {
			review.ReplyComment = comment
			review.RepliedAt = &repliedAt
			s.reviews[accountID][key] = review

			return nil
		}
	}

	return domain.ErrReviewNotFound
}

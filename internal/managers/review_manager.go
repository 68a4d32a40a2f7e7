package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"
	"github.com/reviewpilot/reviewpilot/pkg/clients/googlebusiness"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

type reviewManager struct {
	credentials domain.CredentialStore
	reviews     domain.ReviewStore
	provider    googlebusiness.ClientInterface
	now         func() time.Time
}

type ReviewManagerDependencies struct {
	Credentials domain.CredentialStore
	Reviews     domain.ReviewStore
	Provider    googlebusiness.ClientInterface
	Now         func() time.Time
}

func NewReviewManager(deps ReviewManagerDependencies) domain.ReviewManager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &reviewManager{
		credentials: deps.Credentials,
		reviews:     deps.Reviews,
		provider:    deps.Provider,
		now:         now,
	}
}

// ListBusinesses flattens the provider's account/location hierarchy into
// selectable businesses. A failing account is logged and skipped so one
// broken account cannot empty the whole listing.
func (m *reviewManager) ListBusinesses(ctx context.Context, accountID string) ([]domain.Business, error) {
	if _, err := m.connectedCredential(ctx, accountID); err != nil {
		return nil, err
	}

	accounts, err := m.provider.ListAccounts(ctx, accountID)
	if err != nil {
		return nil, err
	}

	businesses := []domain.Business{}

	for _, account := range accounts {
		locations, err := m.provider.ListLocations(ctx, accountID, account.Name)
		if err != nil {
			log.Warn().Err(err).
				Str("account_id", accountID).
				Str("provider_account", account.Name).
				Msg("Failed to list locations for account, skipping")

			continue
		}

		accountName := account.AccountName
		if accountName == "" {
			accountName = account.Name
		}

		for _, location := range locations {
			businesses = append(businesses, domain.Business{
				ExternalID:  location.Name,
				DisplayName: locationTitle(location),
				Address:     locationAddress(location),
				AccountName: accountName,
			})
		}
	}

	log.Info().Str("account_id", accountID).Int("count", len(businesses)).Msg("Listed business locations")

	return businesses, nil
}

// SelectBusiness persists the chosen location on the credential. Repeating
// the same selection is a no-op.
func (m *reviewManager) SelectBusiness(ctx context.Context, accountID, externalID, displayName string) error {
	if externalID == "" {
		return errors.New("business id is required")
	}

	if _, err := m.connectedCredential(ctx, accountID); err != nil {
		return err
	}

	if err := m.credentials.SetSelectedBusiness(ctx, accountID, externalID, displayName); err != nil {
		return fmt.Errorf("failed to store business selection: %w", err)
	}

	return nil
}

func (m *reviewManager) ListStoredReviews(ctx context.Context, accountID string) ([]domain.Review, error) {
	if accountID == "" {
		return nil, domain.ErrUnauthenticated
	}

	return m.reviews.ListReviews(ctx, accountID)
}

// SyncReviews fetches the selected business's reviews and upserts them keyed
// by the public review id, capturing the reply-capable resource name
// alongside it. Per-review failures are logged and skipped; the last-synced
// timestamp is updated however many upserts succeeded.
func (m *reviewManager) SyncReviews(ctx context.Context, accountID string) (domain.SyncResult, error) {
	credential, err := m.connectedCredential(ctx, accountID)
	if err != nil {
		return domain.SyncResult{}, err
	}

	if credential.SelectedBusinessID == "" {
		return domain.SyncResult{}, domain.ErrNoBusinessSelected
	}

	providerReviews, err := m.provider.ListReviews(ctx, accountID, credential.SelectedBusinessID)
	if err != nil {
		return domain.SyncResult{}, err
	}

	result := domain.SyncResult{ReviewsFound: len(providerReviews)}

	for _, providerReview := range providerReviews {
		review := m.toStoredReview(accountID, providerReview)

		if err := m.reviews.UpsertReview(ctx, review); err != nil {
			log.Warn().Err(err).
				Str("account_id", accountID).
				Str("google_review_id", review.GoogleReviewID).
				Msg("Failed to store review, skipping")

			continue
		}

		result.ReviewsStored++
	}

	if err := m.credentials.SetLastSyncedAt(ctx, accountID, m.now()); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("Failed to update last sync time")
	}

	log.Info().
		Str("account_id", accountID).
		Int("found", result.ReviewsFound).
		Int("stored", result.ReviewsStored).
		Msg("Review sync completed")

	return result, nil
}

// ReplyToReview publishes an owner reply. The stored record must carry the
// provider's reply-capable identifier; without it no provider call is made.
func (m *reviewManager) ReplyToReview(ctx context.Context, accountID, reviewID, replyText string) error {
	if replyText == "" {
		return errors.New("reply text is required")
	}

	credential, err := m.connectedCredential(ctx, accountID)
	if err != nil {
		return err
	}

	if credential.SelectedBusinessID == "" {
		return domain.ErrNoBusinessSelected
	}

	review, err := m.reviews.GetReview(ctx, accountID, reviewID)
	if err != nil {
		return err
	}

	if review.GoogleBusinessReviewID == "" {
		return domain.ErrNotReplyCapable
	}

	if err := m.provider.ReplyToReview(ctx, accountID, review.GoogleBusinessReviewID, replyText); err != nil {
		return err
	}

	if err := m.reviews.SaveReply(ctx, accountID, reviewID, replyText, m.now()); err != nil {
		// The reply is already live on the provider; losing the local copy
		// is not worth failing the operation over.
		log.Warn().Err(err).Str("review_id", reviewID).Msg("Failed to store reply locally")
	}

	log.Info().Str("account_id", accountID).Str("review_id", reviewID).Msg("Reply sent to Google review")

	return nil
}

func (m *reviewManager) connectedCredential(ctx context.Context, accountID string) (domain.AccountCredential, error) {
	if accountID == "" {
		return domain.AccountCredential{}, domain.ErrUnauthenticated
	}

	credential, err := m.credentials.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.AccountCredential{}, domain.ErrNotConnected
		}

		return domain.AccountCredential{}, fmt.Errorf("failed to load credential: %w", err)
	}

	if !credential.Connected() {
		return domain.AccountCredential{}, domain.ErrNotConnected
	}

	return credential, nil
}

func (m *reviewManager) toStoredReview(accountID string, providerReview googlebusiness.Review) domain.Review {
	reviewID := providerReview.ReviewID
	if reviewID == "" {
		reviewID = providerReview.Name
	}

	authorName := "Anonymous"
	authorPhotoURL := ""
	if providerReview.Reviewer != nil {
		if providerReview.Reviewer.DisplayName != "" {
			authorName = providerReview.Reviewer.DisplayName
		}
		authorPhotoURL = providerReview.Reviewer.ProfilePhotoURL
	}

	reviewedAt := providerReview.CreateTime
	if reviewedAt.IsZero() {
		reviewedAt = m.now()
	}

	review := domain.Review{
		ID:                     xid.New().String(),
		AccountID:              accountID,
		GoogleReviewID:         reviewID,
		GoogleBusinessReviewID: providerReview.Name,
		AuthorName:             authorName,
		AuthorPhotoURL:         authorPhotoURL,
		Rating:                 providerReview.Rating(),
		Comment:                providerReview.Comment,
		ReviewedAt:             reviewedAt,
		Source:                 domain.ReviewSourceGoogle,
	}

	if providerReview.Reply != nil {
		review.ReplyComment = providerReview.Reply.Comment
		repliedAt := providerReview.Reply.UpdateTime
		review.RepliedAt = &repliedAt
	}

	return review
}

func locationTitle(location googlebusiness.Location) string {
	if location.Title != "" {
		return location.Title
	}

	if location.LanguageCode != "" {
		return location.LanguageCode
	}

	return "Business Location"
}

func locationAddress(location googlebusiness.Location) string {
	if location.Address != nil && location.Address.FormattedAddress != "" {
		return location.Address.FormattedAddress
	}

	return "No address"
}

package managers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"
	"github.com/reviewpilot/reviewpilot/internal/storage/memory"
	"github.com/reviewpilot/reviewpilot/pkg/clients/googlebusiness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedCredential(accountID string) domain.AccountCredential {
	return domain.AccountCredential{
		AccountID:            accountID,
		AccessToken:          "token",
		RefreshToken:         "rt",
		AccessTokenExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestListBusinesses_SkipsFailingAccounts(t *testing.T) {
	credentials := memory.NewCredentialStore()
	seedCredential(t, credentials, connectedCredential("u1"))

	provider := &fakeProvider{
		listAccountsFn: func(ctx context.Context, accountID string) ([]googlebusiness.Account, error) {
			return []googlebusiness.Account{
				{Name: "accounts/1", AccountName: "First LLC"},
				{Name: "accounts/2", AccountName: "Broken LLC"},
			}, nil
		},
		listLocationsFn: func(ctx context.Context, accountID, accountName string) ([]googlebusiness.Location, error) {
			if accountName == "accounts/2" {
				return nil, errors.New("permission denied")
			}

			return []googlebusiness.Location{
				{
					Name:    "accounts/1/locations/11",
					Title:   "Coffee Corner",
					Address: &googlebusiness.PostalAddress{FormattedAddress: "1 Main St"},
				},
				{
					Name: "accounts/1/locations/12",
				},
			}, nil
		},
	}

	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: credentials,
		Reviews:     memory.NewReviewStore(),
		Provider:    provider,
	})

	businesses, err := manager.ListBusinesses(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, businesses, 2)

	assert.Equal(t, "accounts/1/locations/11", businesses[0].ExternalID)
	assert.Equal(t, "Coffee Corner", businesses[0].DisplayName)
	assert.Equal(t, "1 Main St", businesses[0].Address)
	assert.Equal(t, "First LLC", businesses[0].AccountName)

	// Locations without a title or address still render something.
	assert.Equal(t, "Business Location", businesses[1].DisplayName)
	assert.Equal(t, "No address", businesses[1].Address)
}

func TestListBusinesses_RequiresConnection(t *testing.T) {
	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: memory.NewCredentialStore(),
		Reviews:     memory.NewReviewStore(),
		Provider:    &fakeProvider{},
	})

	_, err := manager.ListBusinesses(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestSelectBusiness_Idempotent(t *testing.T) {
	credentials := memory.NewCredentialStore()
	seedCredential(t, credentials, connectedCredential("u1"))

	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: credentials,
		Reviews:     memory.NewReviewStore(),
		Provider:    &fakeProvider{},
	})

	require.NoError(t, manager.SelectBusiness(context.Background(), "u1", "accounts/1/locations/11", "Coffee Corner"))

	first, err := credentials.GetCredential(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, manager.SelectBusiness(context.Background(), "u1", "accounts/1/locations/11", "Coffee Corner"))

	second, err := credentials.GetCredential(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, first.SelectedBusinessID, second.SelectedBusinessID)
	assert.Equal(t, first.SelectedBusinessName, second.SelectedBusinessName)
	assert.Equal(t, "accounts/1/locations/11", second.SelectedBusinessID)
}

func TestSyncReviews(t *testing.T) {
	credentials := memory.NewCredentialStore()

	credential := connectedCredential("u1")
	credential.SelectedBusinessID = "accounts/1/locations/11"
	seedCredential(t, credentials, credential)

	reviewedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	repliedAt := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	provider := &fakeProvider{
		listReviewsFn: func(ctx context.Context, accountID, businessID string) ([]googlebusiness.Review, error) {
			assert.Equal(t, "accounts/1/locations/11", businessID)

			return []googlebusiness.Review{
				{
					Name:       "accounts/1/locations/11/reviews/r1",
					ReviewID:   "r1",
					Reviewer:   &googlebusiness.Reviewer{DisplayName: "Alice", ProfilePhotoURL: "https://p/1"},
					StarRating: "FIVE",
					Comment:    "Great coffee",
					CreateTime: reviewedAt,
					Reply:      &googlebusiness.ReviewReply{Comment: "Thanks!", UpdateTime: repliedAt},
				},
				{
					Name:       "accounts/1/locations/11/reviews/r2",
					StarRating: "TWO",
					Comment:    "Slow service",
					CreateTime: reviewedAt,
				},
			}, nil
		},
	}

	reviews := memory.NewReviewStore()

	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: credentials,
		Reviews:     reviews,
		Provider:    provider,
	})

	result, err := manager.SyncReviews(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ReviewsFound)
	assert.Equal(t, 2, result.ReviewsStored)

	stored, err := reviews.ListReviews(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, stored, 2)

	byGoogleID := map[string]domain.Review{}
	for _, review := range stored {
		byGoogleID[review.GoogleReviewID] = review
	}

	first := byGoogleID["r1"]
	assert.Equal(t, "accounts/1/locations/11/reviews/r1", first.GoogleBusinessReviewID)
	assert.Equal(t, "Alice", first.AuthorName)
	assert.Equal(t, 5, first.Rating)
	assert.Equal(t, "Thanks!", first.ReplyComment)
	require.NotNil(t, first.RepliedAt)
	assert.Equal(t, repliedAt, *first.RepliedAt)

	// The public id falls back to the resource name when missing, and a
	// missing reviewer becomes Anonymous.
	second := byGoogleID["accounts/1/locations/11/reviews/r2"]
	assert.Equal(t, "Anonymous", second.AuthorName)
	assert.Equal(t, 2, second.Rating)

	credential, err = credentials.GetCredential(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, credential.LastSyncedAt)
	assert.WithinDuration(t, time.Now(), *credential.LastSyncedAt, time.Minute)
}

func TestSyncReviews_RequiresSelectedBusiness(t *testing.T) {
	credentials := memory.NewCredentialStore()
	seedCredential(t, credentials, connectedCredential("u1"))

	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: credentials,
		Reviews:     memory.NewReviewStore(),
		Provider:    &fakeProvider{},
	})

	_, err := manager.SyncReviews(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNoBusinessSelected)
}

func TestReplyToReview(t *testing.T) {
	credentials := memory.NewCredentialStore()

	credential := connectedCredential("u1")
	credential.SelectedBusinessID = "accounts/1/locations/11"
	seedCredential(t, credentials, credential)

	reviews := memory.NewReviewStore()

	require.NoError(t, reviews.UpsertReview(context.Background(), domain.Review{
		ID:                     "rec1",
		AccountID:              "u1",
		GoogleReviewID:         "r1",
		GoogleBusinessReviewID: "accounts/1/locations/11/reviews/r1",
		AuthorName:             "Alice",
		ReviewedAt:             time.Now(),
		Source:                 domain.ReviewSourceGoogle,
	}))

	provider := &fakeProvider{
		replyFn: func(ctx context.Context, accountID, businessReviewID, comment string) error {
			assert.Equal(t, "accounts/1/locations/11/reviews/r1", businessReviewID)
			assert.Equal(t, "Thank you!", comment)

			return nil
		},
	}

	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: credentials,
		Reviews:     reviews,
		Provider:    provider,
	})

	require.NoError(t, manager.ReplyToReview(context.Background(), "u1", "rec1", "Thank you!"))
	assert.Equal(t, 1, provider.replyCalls)

	stored, err := reviews.GetReview(context.Background(), "u1", "rec1")
	require.NoError(t, err)
	assert.Equal(t, "Thank you!", stored.ReplyComment)
	require.NotNil(t, stored.RepliedAt)
}

func TestReplyToReview_NotReplyCapable(t *testing.T) {
	credentials := memory.NewCredentialStore()

	credential := connectedCredential("u1")
	credential.SelectedBusinessID = "accounts/1/locations/11"
	seedCredential(t, credentials, credential)

	reviews := memory.NewReviewStore()

	// Imported without a business reply id, e.g. from the fallback API.
	require.NoError(t, reviews.UpsertReview(context.Background(), domain.Review{
		ID:             "rec1",
		AccountID:      "u1",
		GoogleReviewID: "r1",
		ReviewedAt:     time.Now(),
		Source:         domain.ReviewSourceGoogle,
	}))

	provider := &fakeProvider{}

	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: credentials,
		Reviews:     reviews,
		Provider:    provider,
	})

	err := manager.ReplyToReview(context.Background(), "u1", "rec1", "Thanks")
	assert.ErrorIs(t, err, domain.ErrNotReplyCapable)

	// No provider call was made.
	assert.Equal(t, 0, provider.replyCalls)
}

func TestReplyToReview_ReviewNotFound(t *testing.T) {
	credentials := memory.NewCredentialStore()

	credential := connectedCredential("u1")
	credential.SelectedBusinessID = "accounts/1/locations/11"
	seedCredential(t, credentials, credential)

	manager := NewReviewManager(ReviewManagerDependencies{
		Credentials: credentials,
		Reviews:     memory.NewReviewStore(),
		Provider:    &fakeProvider{},
	})

	err := manager.ReplyToReview(context.Background(), "u1", "missing", "Thanks")
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}

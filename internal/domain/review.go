package domain

import (
	"context"
	"time"
)

const ReviewSourceGoogle = "google_business_profile"

// Review is a stored customer review imported from the provider.
//
// GoogleReviewID is the public review identifier and the upsert key.
// GoogleBusinessReviewID is the provider's reply-capable resource name; the
// two differ, and replies require the latter.
type Review struct {
	ID                     string
	AccountID              string
	GoogleReviewID         string
	GoogleBusinessReviewID string
	AuthorName             string
	AuthorPhotoURL         string
	Rating                 int
	Comment                string
	ReviewedAt             time.Time
	ReplyComment           string
	RepliedAt              *time.Time
	Source                 string
}

// Business is one reply-capable location flattened out of the provider's
// account/location hierarchy.
type Business struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Address     string `json:"address"`
	AccountName string `json:"account_name"`
}

type ReviewStore interface {
	// UpsertReview inserts or updates by (accountID, GoogleReviewID).
	UpsertReview(ctx context.Context, review Review) error
	GetReview(ctx context.Context, accountID, reviewID string) (Review, error)
	ListReviews(ctx context.Context, accountID string) ([]Review, error)
	SaveReply(ctx context.Context, accountID, reviewID, comment string, repliedAt time.Time) error
}

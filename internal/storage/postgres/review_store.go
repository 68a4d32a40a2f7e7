package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewStore struct {
	pool *pgxpool.Pool
}

func NewReviewStore(pool *pgxpool.Pool) *ReviewStore {
	return &ReviewStore{pool: pool}
}

func (s *ReviewStore) UpsertReview(ctx context.Context, review domain.Review) error {
	const query = `
		INSERT INTO google_reviews (
			id, account_id, google_review_id, google_business_review_id,
			author_name, author_photo_url, rating, comment, review_datetime,
			reply_comment, reply_datetime, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id, google_review_id) DO UPDATE SET
			google_business_review_id = EXCLUDED.google_business_review_id,
			author_name = EXCLUDED.author_name,
			author_photo_url = EXCLUDED.author_photo_url,
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			review_datetime = EXCLUDED.review_datetime,
			reply_comment = COALESCE(NULLIF(EXCLUDED.reply_comment, ''), google_reviews.reply_comment),
			reply_datetime = COALESCE(EXCLUDED.reply_datetime, google_reviews.reply_datetime)`

	_, err := s.pool.Exec(ctx, query,
		review.ID,
		review.AccountID,
		review.GoogleReviewID,
		review.GoogleBusinessReviewID,
		review.AuthorName,
		review.AuthorPhotoURL,
		review.Rating,
		review.Comment,
		review.ReviewedAt,
		review.ReplyComment,
		review.RepliedAt,
		review.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review: %w", err)
	}

	return nil
}

func (s *ReviewStore) GetReview(ctx context.Context, accountID, reviewID string) (domain.Review, error) {
	const query = `
		SELECT id, account_id, google_review_id, google_business_review_id,
		       author_name, author_photo_url, rating, comment, review_datetime,
		       COALESCE(reply_comment, ''), reply_datetime, source
		FROM google_reviews
		WHERE account_id = $1 AND id = $2`

	review, err := scanReview(s.pool.QueryRow(ctx, query, accountID, reviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, domain.ErrReviewNotFound
		}

		return domain.Review{}, fmt.Errorf("failed to query review: %w", err)
	}

	return review, nil
}

func (s *ReviewStore) ListReviews(ctx context.Context, accountID string) ([]domain.Review, error) {
	const query = `
		SELECT id, account_id, google_review_id, google_business_review_id,
		       author_name, author_photo_url, rating, comment, review_datetime,
		       COALESCE(reply_comment, ''), reply_datetime, source
		FROM google_reviews
		WHERE account_id = $1
		ORDER BY review_datetime DESC`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}

		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}

	return reviews, nil
}

func (s *ReviewStore) SaveReply(ctx context.Context, accountID, reviewID, comment string, repliedAt time.Time) error {
	const query = `
		UPDATE google_reviews SET
			reply_comment = $3,
			reply_datetime = $4
		WHERE account_id = $1 AND id = $2`

	tag, err := s.pool.Exec(ctx, query, accountID, reviewID, comment, repliedAt)
	if err != nil {
		return fmt.Errorf("failed to save reply: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review

	err := row.Scan(
		&review.ID,
		&review.AccountID,
		&review.GoogleReviewID,
		&review.GoogleBusinessReviewID,
		&review.AuthorName,
		&review.AuthorPhotoURL,
		&review.Rating,
		&review.Comment,
		&review.ReviewedAt,
		&review.ReplyComment,
		&review.RepliedAt,
		&review.Source,
	)
	if err != nil {
		return domain.Review{}, err
	}

	return review, nil
}

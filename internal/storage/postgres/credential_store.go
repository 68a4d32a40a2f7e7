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

type CredentialStore struct {
	pool *pgxpool.Pool
}

func NewCredentialStore(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{pool: pool}
}

func (s *CredentialStore) GetCredential(ctx context.Context, accountID string) (domain.AccountCredential, error) {
	const query = `
		SELECT account_id, access_token, refresh_token, access_token_expires_at,
		       selected_business_id, selected_business_name, google_email, google_name,
		       last_synced_at, updated_at
		FROM google_credentials
		WHERE account_id = $1`

	var (
		credential domain.AccountCredential
		expiresAt  *time.Time
	)

	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&credential.AccountID,
		&credential.AccessToken,
		&credential.RefreshToken,
		&expiresAt,
		&credential.SelectedBusinessID,
		&credential.SelectedBusinessName,
		&credential.GoogleEmail,
		&credential.GoogleName,
		&credential.LastSyncedAt,
		&credential.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountCredential{}, domain.ErrCredentialNotFound
		}

		return domain.AccountCredential{}, fmt.Errorf("failed to query credential: %w", err)
	}

	if expiresAt != nil {
		credential.AccessTokenExpiresAt = *expiresAt
	}

	return credential, nil
}

func (s *CredentialStore) UpsertCredential(ctx context.Context, credential domain.AccountCredential) error {
	const query = `
		INSERT INTO google_credentials (
			account_id, access_token, refresh_token, access_token_expires_at,
			selected_business_id, selected_business_name, google_email, google_name,
			last_synced_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (account_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			access_token_expires_at = EXCLUDED.access_token_expires_at,
			selected_business_id = EXCLUDED.selected_business_id,
			selected_business_name = EXCLUDED.selected_business_name,
			google_email = EXCLUDED.google_email,
			google_name = EXCLUDED.google_name,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = now()`

	_, err := s.pool.Exec(ctx, query,
		credential.AccountID,
		credential.AccessToken,
		credential.RefreshToken,
		nullableTime(credential.AccessTokenExpiresAt),
		credential.SelectedBusinessID,
		credential.SelectedBusinessName,
		credential.GoogleEmail,
		credential.GoogleName,
		credential.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

func (s *CredentialStore) UpdateTokens(ctx context.Context, accountID, accessToken, refreshToken string, expiresAt time.Time) error {
	const query = `
		UPDATE google_credentials SET
			access_token = $2,
			refresh_token = CASE WHEN $3 = '' THEN refresh_token ELSE $3 END,
			access_token_expires_at = $4,
			updated_at = now()
		WHERE account_id = $1`

	tag, err := s.pool.Exec(ctx, query, accountID, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCredentialNotFound
	}

	return nil
}

func (s *CredentialStore) SetSelectedBusiness(ctx context.Context, accountID, businessID, businessName string) error {
	const query = `
		UPDATE google_credentials SET
			selected_business_id = $2,
			selected_business_name = $3,
			updated_at = now()
		WHERE account_id = $1`

	tag, err := s.pool.Exec(ctx, query, accountID, businessID, businessName)
	if err != nil {
		return fmt.Errorf("failed to set selected business: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCredentialNotFound
	}

	return nil
}

func (s *CredentialStore) SetLastSyncedAt(ctx context.Context, accountID string, syncedAt time.Time) error {
	const query = `UPDATE google_credentials SET last_synced_at = $2 WHERE account_id = $1`

	tag, err := s.pool.Exec(ctx, query, accountID, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to set last synced at: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCredentialNotFound
	}

	return nil
}

func (s *CredentialStore) DeleteCredential(ctx context.Context, accountID string) error {
	const query = `DELETE FROM google_credentials WHERE account_id = $1`

	tag, err := s.pool.Exec(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCredentialNotFound
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

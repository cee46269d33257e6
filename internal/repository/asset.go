package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adpilot/adpilot/internal/model"
)

// ErrAssetNotFound indicates an asset lookup miss.
var ErrAssetNotFound = errors.New("asset not found")

// CreateAsset inserts a new asset record.
func (r *Repository) CreateAsset(ctx context.Context, a *model.Asset) error {
	query := `
		INSERT INTO assets (id, campaign_id, kind, prompt, url, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.CampaignID,
		a.Kind,
		a.Prompt,
		a.URL,
		a.Status,
		a.Error,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// ListAssets retrieves all assets for a campaign, oldest first.
func (r *Repository) ListAssets(ctx context.Context, campaignID string) ([]*model.Asset, error) {
	query := `
		SELECT id, campaign_id, kind, prompt, url, status, error, created_at, updated_at
		FROM assets
		WHERE campaign_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*model.Asset
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(
			&a.ID,
			&a.CampaignID,
			&a.Kind,
			&a.Prompt,
			&a.URL,
			&a.Status,
			&a.Error,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// ReadyAssetKinds returns the kinds of ready assets a campaign holds.
// Used to decide whether a generation request can proceed.
func (r *Repository) ReadyAssetKinds(ctx context.Context, campaignID string) ([]model.AssetKind, error) {
	query := `
		SELECT DISTINCT kind
		FROM assets
		WHERE campaign_id = $1 AND status = $2
	`

	rows, err := r.pool.Query(ctx, query, campaignID, model.AssetReady)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset kinds: %w", err)
	}
	defer rows.Close()

	var kinds []model.AssetKind
	for rows.Next() {
		var k model.AssetKind
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan asset kind: %w", err)
		}
		kinds = append(kinds, k)
	}

	return kinds, rows.Err()
}

// MarkAssetReady records a successful generation result.
func (r *Repository) MarkAssetReady(ctx context.Context, id, url string) error {
	return r.setAssetStatus(ctx, id, model.AssetReady, url, "")
}

// MarkAssetFailed records a failed generation with its error message.
func (r *Repository) MarkAssetFailed(ctx context.Context, id, errMsg string) error {
	return r.setAssetStatus(ctx, id, model.AssetFailed, "", errMsg)
}

func (r *Repository) setAssetStatus(ctx context.Context, id string, status model.AssetStatus, url, errMsg string) error {
	query := `
		UPDATE assets
		SET status = $2, url = $3, error = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, status, url, errMsg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update asset status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// GetAsset retrieves an asset by ID.
func (r *Repository) GetAsset(ctx context.Context, id string) (*model.Asset, error) {
	query := `
		SELECT id, campaign_id, kind, prompt, url, status, error, created_at, updated_at
		FROM assets
		WHERE id = $1
	`

	var a model.Asset
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.CampaignID,
		&a.Kind,
		&a.Prompt,
		&a.URL,
		&a.Status,
		&a.Error,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &a, nil
}

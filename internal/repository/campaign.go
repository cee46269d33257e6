package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/adpilot/adpilot/internal/model"
)

// CreateCampaign inserts a new campaign.
func (r *Repository) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	query := `
		INSERT INTO campaigns (id, owner_id, name, objective, audience, channels, budget_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Objective,
		c.Audience,
		pq.Array(c.Channels),
		c.BudgetCents,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetCampaign retrieves a campaign by ID, scoped to its owner.
func (r *Repository) GetCampaign(ctx context.Context, id, ownerID string) (*model.Campaign, error) {
	query := `
		SELECT id, owner_id, name, objective, audience, channels, budget_cents, status, created_at, updated_at
		FROM campaigns
		WHERE id = $1 AND owner_id = $2
	`

	c, err := r.scanCampaign(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// ListCampaigns retrieves all campaigns for an owner, newest first.
func (r *Repository) ListCampaigns(ctx context.Context, ownerID string) ([]*model.Campaign, error) {
	query := `
		SELECT id, owner_id, name, objective, audience, channels, budget_cents, status, created_at, updated_at
		FROM campaigns
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*model.Campaign
	for rows.Next() {
		c, err := r.scanCampaignFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

// UpdateCampaign persists mutable campaign fields.
func (r *Repository) UpdateCampaign(ctx context.Context, c *model.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $3, objective = $4, audience = $5, channels = $6, budget_cents = $7, status = $8, updated_at = $9
		WHERE id = $1 AND owner_id = $2
	`

	c.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Objective,
		c.Audience,
		pq.Array(c.Channels),
		c.BudgetCents,
		c.Status,
		c.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.NewCampaignNotFound(c.ID)
	}

	return nil
}

// DeleteCampaign removes a campaign and, via cascade, its assets.
func (r *Repository) DeleteCampaign(ctx context.Context, id, ownerID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM campaigns WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.NewCampaignNotFound(id)
	}
	return nil
}

// scanCampaign scans a single row into a Campaign model.
func (r *Repository) scanCampaign(row pgx.Row) (*model.Campaign, error) {
	var c model.Campaign
	var channels []string

	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Objective,
		&c.Audience,
		pq.Array(&channels),
		&c.BudgetCents,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Channels = channels
	return &c, nil
}

// scanCampaignFromRows scans a row from pgx.Rows into a Campaign model.
func (r *Repository) scanCampaignFromRows(rows pgx.Rows) (*model.Campaign, error) {
	var c model.Campaign
	var channels []string

	err := rows.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Objective,
		&c.Audience,
		pq.Array(&channels),
		&c.BudgetCents,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Channels = channels
	return &c, nil
}

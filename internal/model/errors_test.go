package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestCampaignNotFoundError(t *testing.T) {
	err := NewCampaignNotFound("cmp_123")

	if err.CampaignID != "cmp_123" {
		t.Errorf("expected CampaignID 'cmp_123', got %s", err.CampaignID)
	}

	if err.Error() != "campaign not found: cmp_123" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	// Matchable through wrapping
	wrapped := fmt.Errorf("get campaign: %w", err)
	var target *CampaignNotFoundError
	if !errors.As(wrapped, &target) {
		t.Fatal("expected errors.As to match CampaignNotFoundError")
	}
	if target.CampaignID != "cmp_123" {
		t.Errorf("expected matched CampaignID 'cmp_123', got %s", target.CampaignID)
	}
}

func TestDatabaseConnectionError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewDatabaseConnection(cause)

	if err.Error() != "database connection failed: dial tcp: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestMissingAssetsError(t *testing.T) {
	err := NewMissingAssets("cmp_9", []string{"logo", "product_photo"})

	if err.CampaignID != "cmp_9" {
		t.Errorf("expected CampaignID 'cmp_9', got %s", err.CampaignID)
	}
	if len(err.Missing) != 2 {
		t.Fatalf("expected 2 missing assets, got %d", len(err.Missing))
	}

	want := "campaign cmp_9 is missing required assets: logo, product_photo"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestCampaignValidationError(t *testing.T) {
	err := NewCampaignValidation("budget_cents", "must not be negative")

	if err.Field != "budget_cents" {
		t.Errorf("expected Field 'budget_cents', got %s", err.Field)
	}

	want := "invalid campaign budget_cents: must not be negative"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

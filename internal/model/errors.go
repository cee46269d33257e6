package model

import (
	"fmt"
	"strings"
)

// Domain failures are tagged error types carrying the context needed to
// act on them: the offending campaign, the missing assets, the invalid
// field. Callers match them with errors.As.

// CampaignNotFoundError indicates a lookup for a campaign that does not
// exist or is not visible to the caller.
type CampaignNotFoundError struct {
	CampaignID string
}

func (e *CampaignNotFoundError) Error() string {
	return fmt.Sprintf("campaign not found: %s", e.CampaignID)
}

// NewCampaignNotFound creates a CampaignNotFoundError for the given campaign.
func NewCampaignNotFound(campaignID string) *CampaignNotFoundError {
	return &CampaignNotFoundError{CampaignID: campaignID}
}

// DatabaseConnectionError indicates the database could not be reached
// or a connection was lost mid-operation.
type DatabaseConnectionError struct {
	Cause error
}

func (e *DatabaseConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %v", e.Cause)
}

// Unwrap exposes the underlying driver error.
func (e *DatabaseConnectionError) Unwrap() error {
	return e.Cause
}

// NewDatabaseConnection wraps a driver error as a DatabaseConnectionError.
func NewDatabaseConnection(cause error) *DatabaseConnectionError {
	return &DatabaseConnectionError{Cause: cause}
}

// MissingAssetsError indicates a media generation request against a
// campaign lacking the source assets the request needs.
type MissingAssetsError struct {
	CampaignID string
	Missing    []string
}

func (e *MissingAssetsError) Error() string {
	return fmt.Sprintf("campaign %s is missing required assets: %s",
		e.CampaignID, strings.Join(e.Missing, ", "))
}

// NewMissingAssets creates a MissingAssetsError listing the absent asset kinds.
func NewMissingAssets(campaignID string, missing []string) *MissingAssetsError {
	return &MissingAssetsError{CampaignID: campaignID, Missing: missing}
}

// CampaignValidationError indicates a campaign field failed validation.
type CampaignValidationError struct {
	Field  string
	Reason string
}

func (e *CampaignValidationError) Error() string {
	return fmt.Sprintf("invalid campaign %s: %s", e.Field, e.Reason)
}

// NewCampaignValidation creates a CampaignValidationError for a single field.
func NewCampaignValidation(field, reason string) *CampaignValidationError {
	return &CampaignValidationError{Field: field, Reason: reason}
}

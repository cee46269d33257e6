package model

import "time"

// AssetKind classifies campaign media assets.
type AssetKind string

const (
	// Source assets uploaded by the user and required for generation.
	AssetLogo         AssetKind = "logo"
	AssetProductPhoto AssetKind = "product_photo"

	// Generated assets produced by the media pipeline.
	AssetBanner AssetKind = "banner"
	AssetSquare AssetKind = "square"
	AssetStory  AssetKind = "story"
)

// AssetStatus is the processing state of an asset.
type AssetStatus string

const (
	AssetPending AssetStatus = "pending"
	AssetReady   AssetStatus = "ready"
	AssetFailed  AssetStatus = "failed"
)

// Asset represents a media asset attached to a campaign.
// Source assets are ready on upload; generated assets start pending
// and transition to ready or failed by the media worker.
type Asset struct {
	ID         string      `json:"id"`
	CampaignID string      `json:"campaign_id"`
	Kind       AssetKind   `json:"kind"`
	Prompt     string      `json:"prompt,omitempty"`
	URL        string      `json:"url,omitempty"`
	Status     AssetStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// GeneratedFormats are the asset kinds the media pipeline can produce.
var GeneratedFormats = []AssetKind{AssetBanner, AssetSquare, AssetStory}

// IsGenerated reports whether the kind is a producible creative format.
func (k AssetKind) IsGenerated() bool {
	for _, f := range GeneratedFormats {
		if k == f {
			return true
		}
	}
	return false
}

// IsSource reports whether the kind is an uploaded source asset.
func (k AssetKind) IsSource() bool {
	return k == AssetLogo || k == AssetProductPhoto
}

// RequiredSourceKinds returns the source assets a campaign must hold
// before the given format can be generated.
func RequiredSourceKinds(format AssetKind) []AssetKind {
	switch format {
	case AssetBanner, AssetSquare, AssetStory:
		return []AssetKind{AssetLogo, AssetProductPhoto}
	default:
		return nil
	}
}

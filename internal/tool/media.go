package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adpilot/adpilot/internal/model"
)

// MediaGenerator is the service surface the media tool calls into.
// Generation is asynchronous: returned assets start out pending.
type MediaGenerator interface {
	Generate(ctx context.Context, campaignID, ownerID string, formats []model.AssetKind, prompt string) ([]*model.Asset, error)
}

// RegisterMediaTools wires the media generation tool into the registry.
func RegisterMediaTools(r *Registry, generator MediaGenerator) {
	r.MustRegister(NewGenerateMixedMediaTool(generator))
}

// NewGenerateMixedMediaTool returns the generate_mixed_media tool.
// The campaign must already hold ready source assets (logo and product
// photo) for each requested format, otherwise the call fails.
func NewGenerateMixedMediaTool(generator MediaGenerator) *Tool {
	return &Tool{
		Definition: Definition{
			Name:        "generate_mixed_media",
			Description: "Queue generation of ad creatives for a campaign in the requested formats. Requires the campaign to have ready source assets. Returns the pending assets as JSON.",
			Required:    []string{"campaign_id", "formats"},
			Properties: map[string]Property{
				"campaign_id": {
					Type:        "string",
					Description: "ID of the campaign to generate creatives for.",
				},
				"formats": {
					Type:        "array",
					Description: "Creative formats to generate.",
					Items: &PropertyItems{
						Type: "string",
						Enum: []any{"banner", "square", "story"},
					},
				},
				"prompt": {
					Type:        "string",
					Description: "Optional style or content guidance for the generated creatives.",
				},
			},
		},
		Execute: func(ctx context.Context, tc Context, input json.RawMessage) (string, error) {
			var args struct {
				CampaignID string   `json:"campaign_id"`
				Formats    []string `json:"formats"`
				Prompt     string   `json:"prompt"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}

			if len(args.Formats) == 0 {
				return "", fmt.Errorf("%w: formats must not be empty", ErrInvalidInput)
			}

			formats := make([]model.AssetKind, 0, len(args.Formats))
			for _, f := range args.Formats {
				kind := model.AssetKind(f)
				if !kind.IsGenerated() {
					return "", fmt.Errorf("%w: unknown format %q", ErrInvalidInput, f)
				}
				formats = append(formats, kind)
			}

			assets, err := generator.Generate(ctx, args.CampaignID, tc.UserID(), formats, args.Prompt)
			if err != nil {
				return "", err
			}

			return marshalResult(assets)
		},
	}
}

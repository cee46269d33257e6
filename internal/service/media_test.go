package service

import (
	"reflect"
	"testing"

	"github.com/adpilot/adpilot/internal/model"
)

func TestMissingSourceKinds(t *testing.T) {
	tests := []struct {
		name    string
		formats []model.AssetKind
		ready   []model.AssetKind
		want    []string
	}{
		{
			name:    "nothing ready",
			formats: []model.AssetKind{model.AssetBanner},
			ready:   nil,
			want:    []string{"logo", "product_photo"},
		},
		{
			name:    "all ready",
			formats: []model.AssetKind{model.AssetBanner, model.AssetStory},
			ready:   []model.AssetKind{model.AssetLogo, model.AssetProductPhoto},
			want:    []string{},
		},
		{
			name:    "one missing",
			formats: []model.AssetKind{model.AssetSquare},
			ready:   []model.AssetKind{model.AssetLogo},
			want:    []string{"product_photo"},
		},
		{
			name:    "deduplicated across formats",
			formats: []model.AssetKind{model.AssetBanner, model.AssetSquare, model.AssetStory},
			ready:   nil,
			want:    []string{"logo", "product_photo"},
		},
		{
			name:    "generated assets do not satisfy sources",
			formats: []model.AssetKind{model.AssetBanner},
			ready:   []model.AssetKind{model.AssetBanner, model.AssetSquare},
			want:    []string{"logo", "product_photo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := missingSourceKinds(tt.formats, tt.ready)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("missingSourceKinds() = %v, want %v", got, tt.want)
			}
		})
	}
}

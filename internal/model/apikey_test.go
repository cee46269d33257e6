package model

import "testing"

func TestRateLimitConfigForTier(t *testing.T) {
	tests := []struct {
		name string
		tier string
		want RateLimitConfig
	}{
		{name: "free", tier: TierFree, want: RateLimitConfig{RequestsPerMinute: 60, Burst: 10}},
		{name: "pro", tier: TierPro, want: RateLimitConfig{RequestsPerMinute: 600, Burst: 50}},
		{name: "unlimited", tier: TierUnlimited, want: RateLimitConfig{RequestsPerMinute: 0, Burst: 0}},
		{name: "unknown falls back to free", tier: "platinum", want: RateLimitConfig{RequestsPerMinute: 60, Burst: 10}},
		{name: "empty falls back to free", tier: "", want: RateLimitConfig{RequestsPerMinute: 60, Burst: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RateLimitConfigForTier(tt.tier); got != tt.want {
				t.Errorf("RateLimitConfigForTier(%q) = %+v, want %+v", tt.tier, got, tt.want)
			}
		})
	}
}

func TestAPIKeyGetRateLimitConfig(t *testing.T) {
	key := &APIKey{RateLimitTier: "bogus"}
	if got := key.GetRateLimitConfig(); got != TierConfigs[TierFree] {
		t.Errorf("unknown tier config = %+v, want free tier", got)
	}

	key.RateLimitTier = TierPro
	if got := key.GetRateLimitConfig(); got != TierConfigs[TierPro] {
		t.Errorf("pro tier config = %+v, want %+v", got, TierConfigs[TierPro])
	}
}

func TestAPIKeyHasScope(t *testing.T) {
	key := &APIKey{Scopes: []string{ScopeRead}}
	if !key.HasScope(ScopeRead) {
		t.Error("expected read scope")
	}
	if key.HasScope(ScopeWrite) {
		t.Error("did not expect write scope")
	}

	admin := &APIKey{Scopes: []string{ScopeAdmin}}
	for _, scope := range ValidScopes {
		if !admin.HasScope(scope) {
			t.Errorf("admin should imply %s", scope)
		}
	}
}

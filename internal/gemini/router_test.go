package gemini

import "testing"

func TestRouterDefaults(t *testing.T) {
	r := NewRouter()
	tests := []struct {
		role      AgentRole
		model     string
		temp      float64
		maxTokens int
		tier      ModelTier
	}{
		{RoleInput, "gemini-2.5-flash", 0.2, 4096, TierFast},
		{RoleSpatial, "gemini-3-pro-preview", 0.7, 16384, TierHeavy},
		{RoleCritic, "gemini-3-pro-preview", 0.3, 8192, TierHeavy},
		{RoleRefinement, "gemini-3-pro-preview", 0.5, 16384, TierHeavy},
		{RoleCost, "gemini-2.5-flash", 0.2, 8192, TierFast},
		{RoleFurniture, "gemini-2.5-flash", 0.4, 8192, TierFast},
	}
	for _, tt := range tests {
		got := r.Route(tt.role)
		if got.Model != tt.model {
			t.Errorf("Route(%s).Model = %q, want %q", tt.role, got.Model, tt.model)
		}
		if got.Temperature != tt.temp {
			t.Errorf("Route(%s).Temperature = %v, want %v", tt.role, got.Temperature, tt.temp)
		}
		if got.MaxOutputTokens != tt.maxTokens {
			t.Errorf("Route(%s).MaxOutputTokens = %d, want %d", tt.role, got.MaxOutputTokens, tt.maxTokens)
		}
		if got.Tier != tt.tier {
			t.Errorf("Route(%s).Tier = %v, want %v", tt.role, got.Tier, tt.tier)
		}
	}
}

func TestRouterOverrideKeepsSampling(t *testing.T) {
	r := NewRouter()
	r.Override(RoleSpatial, "gemini-2.5-pro")

	got := r.Route(RoleSpatial)
	if got.Model != "gemini-2.5-pro" {
		t.Fatalf("Model = %q, want override gemini-2.5-pro", got.Model)
	}
	if got.Temperature != 0.7 || got.MaxOutputTokens != 16384 {
		t.Fatalf("override must keep sampling parameters, got %+v", got)
	}

	// Other roles stay untouched.
	if r.Route(RoleCritic).Model != "gemini-3-pro-preview" {
		t.Fatal("override leaked into another role")
	}
}

func TestRouterEmptyOverrideIgnored(t *testing.T) {
	r := NewRouter()
	r.Override(RoleSpatial, "")
	if got := r.Route(RoleSpatial).Model; got != "gemini-3-pro-preview" {
		t.Fatalf("empty override changed model to %q", got)
	}
}

func TestRouterUnknownRole(t *testing.T) {
	r := NewRouter()
	got := r.Route(AgentRole("nonexistent"))
	if got.Model != "gemini-2.5-flash" {
		t.Fatalf("unknown role should degrade to the input route, got %+v", got)
	}
}

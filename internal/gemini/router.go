package gemini

import "sync"

// ===== MODEL ROUTER =====

// AgentRole identifies which agent a call is made on behalf of. Routing
// is mixture-of-experts style: reasoning-heavy roles get the pro-tier
// model, mechanical roles the flash tier.
type AgentRole string

const (
	RoleInput      AgentRole = "input"
	RoleSpatial    AgentRole = "spatial"
	RoleCritic     AgentRole = "critic"
	RoleRefinement AgentRole = "refinement"
	RoleCost       AgentRole = "cost"
	RoleFurniture  AgentRole = "furniture"
)

// ModelTier is a coarse cost class used for logging and metrics.
type ModelTier string

const (
	TierFast  ModelTier = "fast"
	TierHeavy ModelTier = "heavy"
)

// ModelConfig is the per-call generation configuration the router
// resolves for a role.
type ModelConfig struct {
	Model           string    `json:"model"`
	Temperature     float64   `json:"temperature"`
	MaxOutputTokens int       `json:"maxOutputTokens"`
	Tier            ModelTier `json:"tier"`
}

// defaultRoutes maps each role to its model and sampling parameters.
// Spatial reasoning and refinement run hot and long; critique runs the
// same model cold; the mechanical roles stay on the fast tier.
var defaultRoutes = map[AgentRole]ModelConfig{
	RoleInput:      {Model: "gemini-2.5-flash", Temperature: 0.2, MaxOutputTokens: 4096, Tier: TierFast},
	RoleSpatial:    {Model: "gemini-3-pro-preview", Temperature: 0.7, MaxOutputTokens: 16384, Tier: TierHeavy},
	RoleCritic:     {Model: "gemini-3-pro-preview", Temperature: 0.3, MaxOutputTokens: 8192, Tier: TierHeavy},
	RoleRefinement: {Model: "gemini-3-pro-preview", Temperature: 0.5, MaxOutputTokens: 16384, Tier: TierHeavy},
	RoleCost:       {Model: "gemini-2.5-flash", Temperature: 0.2, MaxOutputTokens: 8192, Tier: TierFast},
	RoleFurniture:  {Model: "gemini-2.5-flash", Temperature: 0.4, MaxOutputTokens: 8192, Tier: TierFast},
}

// Router resolves the model configuration for an agent role. Overrides
// from configuration replace the model while keeping the role's sampling
// parameters.
type Router struct {
	mu     sync.RWMutex
	routes map[AgentRole]ModelConfig
}

// NewRouter returns a router with the default routing table.
func NewRouter() *Router {
	routes := make(map[AgentRole]ModelConfig, len(defaultRoutes))
	for role, cfg := range defaultRoutes {
		routes[role] = cfg
	}
	return &Router{routes: routes}
}

// Route returns the configuration for a role. Unknown roles resolve to
// the input route so a miswired caller degrades to the cheap model
// instead of panicking.
func (r *Router) Route(role AgentRole) ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.routes[role]; ok {
		return cfg
	}
	return r.routes[RoleInput]
}

// Override replaces the model for a role, keeping temperature and token
// limits. Empty model strings are ignored so unset config fields are
// harmless.
func (r *Router) Override(role AgentRole, model string) {
	if model == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.routes[role]
	if !ok {
		return
	}
	cfg.Model = model
	r.routes[role] = cfg
}

// Roles returns the roles the router knows about.
func (r *Router) Roles() []AgentRole {
	return []AgentRole{RoleInput, RoleSpatial, RoleCritic, RoleRefinement, RoleCost, RoleFurniture}
}

package gemini

// ===== FALLBACK CHAINS =====

// fallbackChains is the static degradation order per primary model. The
// preview models fall back to their stable generation first, then to the
// cheaper tier; stable models step down one tier. Chains are fixed at
// build time so a degraded run stays reproducible.
var fallbackChains = map[string][]string{
	"gemini-3-pro-preview":   {"gemini-2.5-pro", "gemini-2.5-flash"},
	"gemini-3-flash-preview": {"gemini-2.5-flash", "gemini-2.5-flash-lite"},
	"gemini-2.5-pro":         {"gemini-2.5-flash"},
	"gemini-2.5-flash":       {"gemini-2.5-flash-lite"},
}

// FallbackChain returns the ordered fallback models for a primary model.
// Unknown models have no fallbacks. The caller owns the returned slice.
func FallbackChain(model string) []string {
	chain, ok := fallbackChains[model]
	if !ok {
		return nil
	}
	out := make([]string, len(chain))
	copy(out, chain)
	return out
}

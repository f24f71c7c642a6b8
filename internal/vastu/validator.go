package vastu

import (
	"fmt"
	"math"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// Validator evaluates the rule table against enriched rooms.
type Validator struct {
	rules []Rule
}

// NewValidator returns a validator over the standard rule table.
func NewValidator() *Validator {
	return &Validator{rules: Rules}
}

// NewValidatorWithRules returns a validator over a custom table. Used by
// tests and by callers that trim the table per project.
func NewValidatorWithRules(rules []Rule) *Validator {
	return &Validator{rules: rules}
}

// Validate scores the plan culturally. Strictness none short-circuits to
// a perfect score with a single informational pass item. Otherwise every
// rule-room application yields one compliance item: PASS when the room
// sits in an allowed sector, WARN when it fails a minor rule, FAIL
// otherwise. A failing rule costs weight x coefficient once regardless
// of how many rooms offend. Rooms no rule binds are ignored.
func (v *Validator) Validate(enriched []plan.EnrichedRoom, strictness plan.Strictness) plan.ValidationReport {
	coeff := strictness.Coefficient()
	if coeff == 0 {
		return plan.ValidationReport{
			Score: 1.0,
			Items: []plan.ComplianceItem{{
				Rule:        "vastu",
				Status:      plan.StatusPass,
				Description: "Vastu evaluation skipped (strictness none)",
			}},
		}
	}

	var (
		violations []plan.Violation
		items      []plan.ComplianceItem
		penalty    float64
		seq        int
	)

	for _, rule := range v.rules {
		failed := 0
		for _, rm := range enriched {
			if !rule.binds(rm.Classification) {
				continue
			}
			if rule.roomPasses(rm.Sector) {
				items = append(items, plan.ComplianceItem{
					Rule:        rule.ID,
					Status:      plan.StatusPass,
					Description: fmt.Sprintf("%s: %s sits in the %s sector", rule.Summary, rm.Name, rm.Sector),
					RoomID:      rm.ID,
				})
				continue
			}
			failed++
			seq++
			status := plan.StatusFail
			if rule.Severity == plan.SeverityMinor {
				status = plan.StatusWarn
			}
			items = append(items, plan.ComplianceItem{
				Rule:        rule.ID,
				Status:      status,
				Description: fmt.Sprintf("%s: %s sits in the %s sector", rule.Summary, rm.Name, rm.Sector),
				RoomID:      rm.ID,
			})
			violations = append(violations, plan.Violation{
				ID:       fmt.Sprintf("VAS-%03d", seq),
				Severity: rule.Severity,
				Rule:     rule.ID,
				Description: fmt.Sprintf("%s: %s sits in the %s sector",
					rule.Summary, rm.Name, rm.Sector),
				RoomID:     rm.ID,
				Suggestion: rule.Remedy,
			})
		}
		if failed > 0 {
			penalty += rule.Weight * coeff
		}
	}

	return plan.ValidationReport{
		Violations: violations,
		Items:      items,
		Score:      math.Max(0, math.Round((1-penalty)*10000)/10000),
	}
}

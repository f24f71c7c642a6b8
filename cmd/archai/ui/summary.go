package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// RenderSummary renders the finished plan as terminal markdown.
func RenderSummary(p *plan.GeneratedPlan) (string, error) {
	if p == nil {
		return "", fmt.Errorf("no plan to render")
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := renderer.Render(summaryMarkdown(p))
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return out, nil
}

func summaryMarkdown(p *plan.GeneratedPlan) string {
	var b strings.Builder
	b.WriteString("# Generated Floor Plan\n\n")

	verdict := "did not converge"
	if p.Converged {
		verdict = "converged"
	}
	fmt.Fprintf(&b, "**Score %s** (%s after %d iteration(s)) · built-up %s m² of %s m² · coverage %s%%\n\n",
		ftoa(p.Score.Final), verdict, p.Iterations,
		ftoa(p.BuiltUpArea), ftoa(p.TotalArea), ftoa(p.PlotCoverageRatio*100))

	b.WriteString("## Rooms\n\n")
	b.WriteString("| Room | Type | Size (m) | Area (m²) | Sector |\n")
	b.WriteString("|------|------|----------|-----------|--------|\n")
	for _, r := range p.Rooms {
		fmt.Fprintf(&b, "| %s | %s | %s × %s | %s | %s |\n",
			r.Name, r.Type, ftoa(r.Rect.Width), ftoa(r.Rect.Height), ftoa(r.AreaSqm), r.Sector)
	}
	b.WriteString("\n")

	if failures := countFailures(p.Compliance.Regulatory) + countFailures(p.Compliance.Cultural); failures > 0 {
		fmt.Fprintf(&b, "## Compliance\n\n%d check(s) failed:\n\n", failures)
		for _, item := range append(p.Compliance.Regulatory, p.Compliance.Cultural...) {
			if item.Status == plan.StatusFail {
				fmt.Fprintf(&b, "- **%s** — %s\n", item.Rule, item.Description)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("## Compliance\n\nAll checks passed.\n\n")
	}

	if p.TotalCostRange.Max > 0 {
		fmt.Fprintf(&b, "## Cost\n\n%s %s – %s (%d BOM lines)\n\n",
			p.TotalCostRange.Currency, money(p.TotalCostRange.Min), money(p.TotalCostRange.Max), len(p.BOM))
	}

	if len(p.DesignLog) > 0 {
		b.WriteString("## Design Log\n\n")
		for _, line := range p.DesignLog {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	return b.String()
}

func countFailures(items []plan.ComplianceItem) int {
	n := 0
	for _, item := range items {
		if item.Status == plan.StatusFail {
			n++
		}
	}
	return n
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

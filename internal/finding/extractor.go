package finding

import (
	"fmt"
	"regexp"
	"strings"
)

// markerPattern matches lines like "[HIGH] Missing auth check on admin route".
// The upstream text format is not under our control; this heuristic is kept
// deliberately loose and the extractor degrades to placeholders when it
// matches nothing.
var markerPattern = regexp.MustCompile(`(?m)^\s*\[(HIGH|MEDIUM|LOW)\]\s*(.+?)\s*$`)

// Extract turns a findings summary plus optional free-form analysis text into
// a flat list of findings. It never fails: when no severity markers parse and
// the summary still reports high findings, it synthesizes placeholder
// findings so the discussion can proceed.
func Extract(summary Summary, analysisText string) []Finding {
	findings := extractFromMarkers(analysisText)
	if len(findings) > 0 {
		return findings
	}

	// Placeholder fallback: the summary says high findings exist but the
	// analysis text gave us nothing to parse. Placeholder titles carry no
	// real information and callers must accept that.
	for i := 0; i < summary.High; i++ {
		findings = append(findings, Finding{
			ID:       fmt.Sprintf("finding-%d", i+1),
			Title:    fmt.Sprintf("High severity finding %d", i+1),
			Category: CategoryLogic,
			Severity: SeverityHigh,
		})
	}
	return findings
}

// extractFromMarkers parses "[HIGH] ..." style lines from free-form text.
func extractFromMarkers(text string) []Finding {
	if text == "" {
		return nil
	}

	matches := markerPattern.FindAllStringSubmatch(text, -1)
	findings := make([]Finding, 0, len(matches))
	for i, m := range matches {
		severity, err := ParseSeverity(m[1])
		if err != nil {
			continue
		}
		title := m[2]
		findings = append(findings, Finding{
			ID:       fmt.Sprintf("finding-%d", i+1),
			Title:    title,
			Category: categorize(title),
			Severity: severity,
		})
	}
	return findings
}

// categorize infers a category from keyword buckets in the finding title.
func categorize(title string) Category {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, "security", "auth", "pii", "credential", "injection"):
		return CategorySecurity
	case containsAny(lower, "performance", "query", "cache", "slow", "n+1"):
		return CategoryPerformance
	case containsAny(lower, "test", "pattern", "practice", "convention", "style"):
		return CategoryBestPractices
	default:
		return CategoryLogic
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

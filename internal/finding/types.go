// Package finding defines the review finding model and the extractor that
// turns raw upstream review output into a flat list of findings.
package finding

import "fmt"

// Category classifies what aspect of the code a finding is about.
type Category string

const (
	// CategorySecurity covers auth, secrets, injection and data-exposure issues.
	CategorySecurity Category = "security"
	// CategoryLogic covers correctness and control-flow issues.
	CategoryLogic Category = "logic"
	// CategoryBestPractices covers style, testing and convention issues.
	CategoryBestPractices Category = "bestPractices"
	// CategoryPerformance covers query, caching and resource issues.
	CategoryPerformance Category = "performance"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySecurity, CategoryLogic, CategoryBestPractices, CategoryPerformance:
		return true
	}
	return false
}

// Severity rates how urgent a finding is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// ParseSeverity converts a marker tag (e.g. "HIGH") to a Severity.
func ParseSeverity(tag string) (Severity, error) {
	switch tag {
	case "HIGH":
		return SeverityHigh, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "LOW":
		return SeverityLow, nil
	}
	return "", fmt.Errorf("unknown severity tag %q", tag)
}

// Finding is a single categorized, severity-rated issue surfaced by review.
// Findings are immutable once extracted.
type Finding struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
}

// Summary holds the upstream per-severity finding counts.
type Summary struct {
	Total      int            `json:"total"`
	High       int            `json:"high"`
	Medium     int            `json:"medium"`
	Low        int            `json:"low"`
	ByCategory map[string]int `json:"byCategory,omitempty"`
}

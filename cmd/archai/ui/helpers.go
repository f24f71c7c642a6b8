package ui

import "github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"

// Event payloads are map[string]any; in-process they carry typed
// values, off the wire they carry JSON numbers. Handle both.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func violationCount(v any) int {
	switch list := v.(type) {
	case []plan.Violation:
		return len(list)
	case []any:
		return len(list)
	}
	return 0
}

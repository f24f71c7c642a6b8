package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ===== RESPONSE SANITIZATION =====
//
// Models wrap JSON in markdown fences, preface it with prose, leave
// trailing commas and emit raw control characters inside strings. The
// sanitizer repairs those four defects, in that order. Sanitize is
// idempotent: running it on already-clean JSON returns the input
// unchanged.

// Clean returns the model output ready for unmarshalling. Output that
// already parses as JSON is passed through untouched — the repair chain
// must never get a chance to mangle a well-formed payload whose string
// values happen to contain fences or braces.
func Clean(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}
	return Sanitize(trimmed)
}

// Sanitize normalizes defective model output into its best-effort JSON
// payload.
func Sanitize(raw string) string {
	s := StripFences(raw)
	s = extractJSON(s)
	s = removeTrailingCommas(s)
	s = escapeControlChars(s)
	return strings.TrimSpace(s)
}

// StripFences removes a markdown code fence around the payload, with or
// without a language tag, and drops any prose outside the fence.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if isFenceTag(tag) {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// isFenceTag reports whether the text between ``` and the first newline
// is a language tag (like "json") rather than payload.
func isFenceTag(tag string) bool {
	if tag == "" {
		return true
	}
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// extractJSON slices out the outermost JSON value: from the first { or [
// to the last } or ]. Prose before or after the payload is discarded. If
// no JSON delimiters exist, the input is returned as-is so the decode
// error carries the original text.
func extractJSON(s string) string {
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	start := objStart
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
	}
	if start < 0 {
		return s
	}
	end := strings.LastIndexByte(s, '}')
	if arrEnd := strings.LastIndexByte(s, ']'); arrEnd > end {
		end = arrEnd
	}
	if end < start {
		return s
	}
	return s[start : end+1]
}

// removeTrailingCommas drops commas that directly precede a closing } or
// ]. String literals are respected: a ",}" inside a string survives.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inStr {
			b.WriteByte(ch)
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		if ch == '"' {
			inStr = true
			b.WriteByte(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// escapeControlChars escapes raw control characters that appear inside
// string literals. Models emit literal newlines inside design-log prose,
// which encoding/json rejects. Characters outside strings (legitimate
// JSON whitespace) are untouched, and already-escaped sequences are not
// double-escaped.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inStr {
			if ch == '"' {
				inStr = true
			}
			b.WriteByte(ch)
			continue
		}
		if esc {
			b.WriteByte(ch)
			esc = false
			continue
		}
		switch {
		case ch == '\\':
			esc = true
			b.WriteByte(ch)
		case ch == '"':
			inStr = false
			b.WriteByte(ch)
		case ch == '\n':
			b.WriteString(`\n`)
		case ch == '\r':
			b.WriteString(`\r`)
		case ch == '\t':
			b.WriteString(`\t`)
		case ch < 0x20:
			fmt.Fprintf(&b, `\u%04x`, ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// head returns the first n bytes of s for error messages.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

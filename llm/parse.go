package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Model output is free text even when the prompt demands JSON. The parsers
// here accept embedded JSON, code fences, and bare prose, and report failure
// rather than guessing so callers can apply their own defaults.

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
	integerPattern    = regexp.MustCompile(`-?\d+`)
	floatPattern      = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// ParseScore extracts a 0-100 integer score from model output. It first
// tries an embedded JSON object with a "score" field, then falls back to the
// first integer in range found in the text.
func ParseScore(raw string) (int, bool) {
	text := stripFences(raw)

	if m := jsonObjectPattern.FindString(text); m != "" {
		var obj struct {
			Score json.Number `json:"score"`
		}
		if err := json.Unmarshal([]byte(m), &obj); err == nil && obj.Score != "" {
			if f, err := obj.Score.Float64(); err == nil {
				n := int(f)
				if n >= 0 && n <= 100 {
					return n, true
				}
			}
		}
	}

	for _, m := range integerPattern.FindAllString(text, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n >= 0 && n <= 100 {
			return n, true
		}
	}

	return 0, false
}

// ParseStringList extracts a JSON array of strings from model output. Blank
// entries are dropped.
func ParseStringList(raw string) ([]string, bool) {
	text := stripFences(raw)

	m := jsonArrayPattern.FindString(text)
	if m == "" {
		return nil, false
	}

	var items []string
	if err := json.Unmarshal([]byte(m), &items); err != nil {
		return nil, false
	}

	out := items[:0]
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// ParseUnitFloat extracts a value in [0,1] from model output, for continuity
// and complexity scores. Values given as percentages are scaled down.
func ParseUnitFloat(raw string) (float64, bool) {
	text := stripFences(raw)

	for _, m := range floatPattern.FindAllString(text, -1) {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if f >= 0 && f <= 1 {
			return f, true
		}
		if f > 1 && f <= 100 {
			return f / 100, true
		}
	}

	return 0, false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

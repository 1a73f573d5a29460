package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
		ok   bool
	}{
		{"json object", `{"score": 85, "reason": "well supported"}`, 85, true},
		{"json in code fence", "```json\n{\"score\": 42}\n```", 42, true},
		{"unstructured prose", "about 90, fairly certain", 90, true},
		{"leading number", "95 - the answer cites the correct article", 95, true},
		{"float score in json", `{"score": 77.4}`, 77, true},
		{"no number", "I cannot assess this.", 0, false},
		{"out of range only", "the year 2024 was busy", 0, false},
		{"negative ignored", "-5 then 60", 60, true},
		{"zero is valid", "0", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScore(tt.raw)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStringList(t *testing.T) {
	questions, ok := ParseStringList(`["질문 하나", "질문 둘", "질문 셋"]`)
	require.True(t, ok)
	assert.Equal(t, []string{"질문 하나", "질문 둘", "질문 셋"}, questions)

	questions, ok = ParseStringList("Here you go:\n```json\n[\"only one\"]\n```")
	require.True(t, ok)
	assert.Equal(t, []string{"only one"}, questions)

	_, ok = ParseStringList("no list here")
	assert.False(t, ok)

	_, ok = ParseStringList(`["", "  "]`)
	assert.False(t, ok, "blank-only list should not parse")

	_, ok = ParseStringList(`[1, 2, 3]`)
	assert.False(t, ok, "non-string array should not parse")
}

func TestParseUnitFloat(t *testing.T) {
	got, ok := ParseUnitFloat("0.75")
	require.True(t, ok)
	assert.InDelta(t, 0.75, got, 1e-9)

	got, ok = ParseUnitFloat("The continuity score is 0.3 here.")
	require.True(t, ok)
	assert.InDelta(t, 0.3, got, 1e-9)

	got, ok = ParseUnitFloat("85")
	require.True(t, ok)
	assert.InDelta(t, 0.85, got, 1e-9, "percentages scale down")

	got, ok = ParseUnitFloat("1")
	require.True(t, ok)
	assert.InDelta(t, 1.0, got, 1e-9)

	_, ok = ParseUnitFloat("no score")
	assert.False(t, ok)
}

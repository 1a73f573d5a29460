package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Heuristic scores give the splitter a deterministic spine; the oracle is
// consulted only when a heuristic lands in the ambiguous band.

const (
	ambiguousLow  = 0.4
	ambiguousHigh = 0.7
)

var sentenceEndings = []string{"입니다", "습니다", "한다", "된다", "이다", "다.", "요"}

// heuristicContinuity scores how safe a cut between before and after is.
// Higher means less context disruption at the boundary.
func heuristicContinuity(before, after string) float64 {
	b := strings.TrimRight(before, " \t")
	a := strings.TrimLeft(after, " \t")

	switch {
	case strings.HasSuffix(b, "\n\n") || strings.HasSuffix(b, "\n") || strings.HasPrefix(a, "\n"):
		return 0.9
	case endsWithAny(b, ".", "!", "?", "。"):
		return 0.8
	case endsWithAny(b, sentenceEndings...):
		return 0.8
	case endsWithAny(b, ",", ";", ":", "·"):
		return 0.7
	case cutsWord(before, after):
		return 0.3
	default:
		return 0.5
	}
}

// heuristicComplexity estimates text complexity in [0,1] from legal marker
// density and average sentence length. Used when the oracle gives an
// unparseable complexity response.
func heuristicComplexity(text string) float64 {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}

	markers := len(articleMarker.FindAllString(text, -1)) + len(itemMarker.FindAllString(text, -1))
	density := float64(markers) / float64(n) * 100

	terminators := strings.Count(text, ".") + strings.Count(text, "。") + strings.Count(text, "\n")
	if terminators == 0 {
		terminators = 1
	}
	avgSentence := float64(n) / float64(terminators)

	score := 0.4*clamp(density/2, 0, 1) + 0.6*clamp((avgSentence-40)/160, 0, 1)
	return clamp(score, 0, 1)
}

func endsWithAny(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func cutsWord(before, after string) bool {
	if before == "" || after == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(before)
	first, _ := utf8.DecodeRuneInString(after)
	return !unicode.IsSpace(last) && !unicode.IsSpace(first)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

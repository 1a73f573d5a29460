package chunker

import (
	"regexp"
	"sort"
)

// Structural markers of Korean statute text. Article and section markers
// open a new segment during splitting; item markers are never cut through
// but do not open segments on their own.
var (
	// 제1조, 제12조의2
	articleMarker = regexp.MustCompile(`제\s*\d+\s*조(?:의\s*\d+)?`)
	// 제1장, 제2절, 제3편, 제4관
	sectionMarker = regexp.MustCompile(`제\s*\d+\s*[장절편관]`)
	// ①②…, 1호/2항/3목, numbered list items
	itemMarker = regexp.MustCompile(`[①-⑮]|\d+\s*[호항목]|(?m)^\s*\d+\.`)

	// 제1조 (목적) at the head of a chunk body.
	articleHead = regexp.MustCompile(`^\s*(제\s*\d+\s*조(?:의\s*\d+)?)\s*(?:\(([^)]+)\))?`)
)

// runeRange is a half-open [start, end) interval in rune offsets.
type runeRange struct {
	start, end int
}

// findMarkers returns the rune-offset ranges of all matches of re in text,
// in order.
func findMarkers(text string, re *regexp.Regexp) []runeRange {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	byteToRune := make(map[int]int, len(text))
	r := 0
	for i := range text {
		byteToRune[i] = r
		r++
	}
	byteToRune[len(text)] = r

	ranges := make([]runeRange, 0, len(locs))
	for _, loc := range locs {
		ranges = append(ranges, runeRange{start: byteToRune[loc[0]], end: byteToRune[loc[1]]})
	}
	return ranges
}

// segmentBoundaries returns the sorted, deduplicated rune offsets at which a
// structural segment begins. Offset 0 is always included.
func segmentBoundaries(text string) []int {
	offsets := []int{0}
	seen := map[int]bool{0: true}

	for _, re := range []*regexp.Regexp{sectionMarker, articleMarker} {
		for _, m := range findMarkers(text, re) {
			if !seen[m.start] {
				offsets = append(offsets, m.start)
				seen[m.start] = true
			}
		}
	}

	sort.Ints(offsets)
	return offsets
}

// protectedRanges returns all marker ranges a cut point must not land
// inside, item markers included.
func protectedRanges(text string) []runeRange {
	var ranges []runeRange
	for _, re := range []*regexp.Regexp{sectionMarker, articleMarker, itemMarker} {
		ranges = append(ranges, findMarkers(text, re)...)
	}
	return ranges
}

func insideRange(pos int, ranges []runeRange) bool {
	for _, r := range ranges {
		if pos > r.start && pos < r.end {
			return true
		}
	}
	return false
}

// Package chunker splits Korean statute documents into retrieval-sized
// chunks. Structural boundary markers are never crossed; oversized segments
// are cut adaptively with complexity-adjusted targets and continuity-scored
// cut points. Splitting never fails: when the oracle is unavailable it
// degrades to fixed-size cuts at whitespace.
package chunker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
)

// Chunker holds the splitting configuration. A nil oracle disables adaptive
// scoring entirely and every oversized segment takes the fixed-size path.
type Chunker struct {
	oracle        llm.Completer
	baseSize      int
	maxSize       int
	minSize       int
	overlap       int
	cutWindow     int
	cutStep       int
	oracleTimeout time.Duration
}

// New creates a Chunker from the configured sizes.
func New(oracle llm.Completer, cfg *config.Config) *Chunker {
	return &Chunker{
		oracle:        oracle,
		baseSize:      cfg.ChunkBaseSize,
		maxSize:       cfg.ChunkMaxSize,
		minSize:       cfg.ChunkMinSize,
		overlap:       cfg.ChunkOverlap,
		cutWindow:     cfg.CutWindow,
		cutStep:       cfg.CutStep,
		oracleTimeout: cfg.OracleTimeout,
	}
}

// splitState is per-Split scratch. Once an oracle call fails the rest of the
// run stays on the fixed-size path rather than hammering a down provider.
type splitState struct {
	oracleDown bool
}

// piece is a chunk body before overlap and metadata are attached.
type piece struct {
	start, end int
	method     models.SplitMethod
	complexity float64
}

// Split produces the ordered chunk sequence for a document. It never
// returns an error; oracle trouble degrades the split method instead.
func (c *Chunker) Split(ctx context.Context, doc models.Document) []models.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	protected := protectedRanges(doc.Text)
	bounds := segmentBoundaries(doc.Text)
	bounds = append(bounds, len(runes))

	state := &splitState{}
	var pieces []piece

	curStart, curEnd := 0, 0
	flush := func() {
		if curEnd > curStart {
			pieces = append(pieces, piece{start: curStart, end: curEnd, method: models.SplitStructural})
		}
	}

	for i := 0; i+1 < len(bounds); i++ {
		segStart, segEnd := bounds[i], bounds[i+1]
		if segEnd <= segStart {
			continue
		}
		segLen := segEnd - segStart

		if curEnd > curStart && (curEnd-curStart)+segLen > c.baseSize {
			flush()
			curStart, curEnd = segStart, segStart
		}
		if curEnd == curStart {
			curStart, curEnd = segStart, segStart
		}

		if segLen <= c.baseSize {
			curEnd = segEnd
			continue
		}

		// Oversized segment: split it on its own.
		flush()
		pieces = append(pieces, c.splitSegment(ctx, runes, segStart, segEnd, protected, state)...)
		curStart, curEnd = segEnd, segEnd
	}
	flush()

	return c.assemble(doc, runes, pieces)
}

// splitSegment cuts one segment larger than the base size. The target size
// shrinks with complexity: complex text gets smaller chunks.
func (c *Chunker) splitSegment(ctx context.Context, runes []rune, start, end int, protected []runeRange, state *splitState) []piece {
	if c.oracle == nil || state.oracleDown {
		return c.splitFixed(runes, start, end, protected)
	}

	complexity, err := c.oracleComplexity(ctx, string(runes[start:end]))
	if err != nil {
		log.Printf("Warning: complexity scoring failed, using fixed-size splitting: %v", err)
		state.oracleDown = true
		return c.splitFixed(runes, start, end, protected)
	}

	target := c.baseSize + int(float64(c.maxSize-c.baseSize)*(1-complexity))

	var out []piece
	pos := start
	for end-pos > target {
		cut := c.chooseCut(ctx, runes, pos+target, pos, end, protected, state)
		if cut <= pos || end-cut < c.minSize {
			break
		}
		out = append(out, piece{start: pos, end: cut, method: models.SplitAdaptive, complexity: complexity})
		pos = cut
	}
	out = append(out, piece{start: pos, end: end, method: models.SplitAdaptive, complexity: complexity})
	return out
}

// chooseCut scores whitespace candidates within the window around target and
// returns the least disruptive one. Ties break to the candidate nearest the
// target.
func (c *Chunker) chooseCut(ctx context.Context, runes []rune, target, segStart, segEnd int, protected []runeRange, state *splitState) int {
	lo := target - c.cutWindow
	if lo < segStart+c.minSize {
		lo = segStart + c.minSize
	}
	hi := target + c.cutWindow
	if hi > segEnd-c.minSize {
		hi = segEnd - c.minSize
	}
	if lo >= hi {
		return avoidProtected(nearestWhitespace(runes, target, segStart+c.minSize, segEnd), protected)
	}

	bestCut, bestScore := -1, -1.0
	seen := make(map[int]bool)
	for p := lo; p <= hi; p += c.cutStep {
		cut := nearestWhitespace(runes, p, lo, hi)
		if cut <= segStart || seen[cut] || insideRange(cut, protected) {
			continue
		}
		seen[cut] = true

		score := c.continuityAt(ctx, runes, cut, state)
		if score > bestScore || (score == bestScore && abs(cut-target) < abs(bestCut-target)) {
			bestScore, bestCut = score, cut
		}
	}
	if bestCut < 0 {
		return avoidProtected(nearestWhitespace(runes, target, segStart+c.minSize, segEnd), protected)
	}
	return bestCut
}

// continuityAt scores a candidate cut. The oracle is consulted only when the
// heuristic is ambiguous; a failed call degrades to the heuristic score.
func (c *Chunker) continuityAt(ctx context.Context, runes []rune, cut int, state *splitState) float64 {
	before := contextBefore(runes, cut, 60)
	after := contextAfter(runes, cut, 60)

	score := heuristicContinuity(before, after)
	if score <= ambiguousLow || score >= ambiguousHigh {
		return score
	}
	if c.oracle == nil || state.oracleDown {
		return score
	}

	cctx, cancel := context.WithTimeout(ctx, c.oracleTimeout)
	defer cancel()
	resp, err := c.oracle.Complete(cctx, continuityPrompt(before, after))
	if err != nil {
		log.Printf("Warning: continuity scoring failed, keeping heuristic score: %v", err)
		state.oracleDown = true
		return score
	}
	if v, ok := llm.ParseUnitFloat(resp); ok {
		return v
	}
	return score
}

// splitFixed cuts a segment into base-size pieces at the nearest whitespace,
// without any oracle calls. Protected marker ranges still hold: whitespace
// inside a spaced marker like 제 3 조 is not a cut point.
func (c *Chunker) splitFixed(runes []rune, start, end int, protected []runeRange) []piece {
	var out []piece
	pos := start
	for end-pos > c.baseSize {
		cut := avoidProtected(nearestWhitespace(runes, pos+c.baseSize, pos+c.minSize, end), protected)
		if cut <= pos || end-cut < c.minSize {
			break
		}
		out = append(out, piece{start: pos, end: cut, method: models.SplitFallback})
		pos = cut
	}
	out = append(out, piece{start: pos, end: end, method: models.SplitFallback})
	return out
}

// avoidProtected moves a cut that lands inside a marker range to the end of
// that range, repeating in case the new position falls into another range.
func avoidProtected(cut int, protected []runeRange) int {
	for moved := true; moved; {
		moved = false
		for _, r := range protected {
			if cut > r.start && cut < r.end {
				cut = r.end
				moved = true
			}
		}
	}
	return cut
}

// assemble attaches overlap prefixes and legal-hierarchy metadata.
func (c *Chunker) assemble(doc models.Document, runes []rune, pieces []piece) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(pieces))
	for i, p := range pieces {
		ov := 0
		if i > 0 {
			ov = c.overlap
			if prevLen := p.start - pieces[i-1].start; ov > prevLen {
				ov = prevLen
			}
		}

		body := string(runes[p.start:p.end])
		chunk := models.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Index:      i,
			Start:      p.start,
			End:        p.end,
			Overlap:    ov,
			Text:       string(runes[p.start-ov : p.end]),
			LawTitle:   doc.LawTitle,
			Complexity: p.complexity,
			Method:     p.method,
		}
		if m := articleHead.FindStringSubmatch(body); m != nil {
			num := strings.ReplaceAll(m[1], " ", "")
			chunk.ArticleNumber = &num
			if m[2] != "" {
				title := m[2]
				chunk.ArticleTitle = &title
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (c *Chunker) oracleComplexity(ctx context.Context, text string) (float64, error) {
	cctx, cancel := context.WithTimeout(ctx, c.oracleTimeout)
	defer cancel()

	resp, err := c.oracle.Complete(cctx, complexityPrompt(text))
	if err != nil {
		return 0, err
	}
	if v, ok := llm.ParseUnitFloat(resp); ok {
		return v, nil
	}
	return heuristicComplexity(text), nil
}

func complexityPrompt(text string) string {
	return fmt.Sprintf(`Rate the structural complexity of the following Korean legal text on a scale from 0 to 1, where 0 is plain narrative text and 1 is dense, heavily cross-referenced statutory text. Respond with only the number.

Text:
%s`, truncateRunes(text, 2000))
}

func continuityPrompt(before, after string) string {
	return fmt.Sprintf(`The following Korean legal text is about to be split at the marked point. Rate from 0 to 1 how well the meaning is preserved by this split, where 1 means a clean boundary between complete thoughts and 0 means the split lands mid-thought. Respond with only the number.

Text before the split:
%s

Text after the split:
%s`, before, after)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func contextBefore(runes []rune, cut, n int) string {
	lo := cut - n
	if lo < 0 {
		lo = 0
	}
	return string(runes[lo:cut])
}

func contextAfter(runes []rune, cut, n int) string {
	hi := cut + n
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[cut:hi])
}

// nearestWhitespace returns the cut offset just after the whitespace rune
// closest to target within [lo, hi). When the range holds no whitespace it
// returns target itself: a mid-word cut beats no cut at all.
func nearestWhitespace(runes []rune, target, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi > len(runes) {
		hi = len(runes)
	}
	if target < lo {
		target = lo
	}
	if target >= hi {
		target = hi - 1
	}

	for d := 0; ; d++ {
		inRange := false
		if fwd := target + d; fwd < hi {
			inRange = true
			if unicode.IsSpace(runes[fwd]) {
				return fwd + 1
			}
		}
		if back := target - d; back >= lo {
			inRange = true
			if unicode.IsSpace(runes[back]) {
				return back + 1
			}
		}
		if !inRange {
			return target
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package models

import "time"

// TurnPhase is a state of the fixed per-turn pipeline. The topology never
// changes at runtime, so it is an explicit enum rather than a graph engine.
type TurnPhase string

const (
	PhaseReceived     TurnPhase = "RECEIVED"
	PhaseAugmenting   TurnPhase = "AUGMENTING"
	PhaseRouted       TurnPhase = "ROUTED"
	PhaseRetrieving   TurnPhase = "RETRIEVING"
	PhaseSynthesizing TurnPhase = "SYNTHESIZING"
	PhaseAssessing    TurnPhase = "ASSESSING"

	// Terminal phases. A clarification reply starts a new turn; there is no
	// automatic re-entry.
	PhaseDone                  TurnPhase = "DONE"
	PhaseAwaitingClarification TurnPhase = "AWAITING_CLARIFICATION"
)

// RoutingDecision is the closed set of retrieval paths chosen for a turn.
// It is made once per turn and never revisited mid-turn.
type RoutingDecision string

const (
	RouteLocal       RoutingDecision = "LOCAL"
	RouteWeb         RoutingDecision = "WEB"
	RouteLocalAndWeb RoutingDecision = "LOCAL_AND_WEB"
	// RouteNone is the greeting fast-path: no retrieval at all.
	RouteNone RoutingDecision = "NONE"
)

// IncludesLocal reports whether the local index path runs for this decision.
func (d RoutingDecision) IncludesLocal() bool {
	return d == RouteLocal || d == RouteLocalAndWeb
}

// IncludesWeb reports whether the web search path runs for this decision.
func (d RoutingDecision) IncludesWeb() bool {
	return d == RouteWeb || d == RouteLocalAndWeb
}

// Query carries the user text through the pipeline together with the
// router's rewritten form. Augmented falls back to Raw when rewriting
// degrades.
type Query struct {
	ConversationID string `json:"conversation_id"`
	Raw            string `json:"raw"`
	Augmented      string `json:"augmented,omitempty"`
}

// Retrieval returns the query form retrieval should use.
func (q Query) Retrieval() string {
	if q.Augmented != "" {
		return q.Augmented
	}
	return q.Raw
}

// EvidenceKind distinguishes the retrieval source of a piece of evidence.
type EvidenceKind string

const (
	EvidenceLocal EvidenceKind = "local"
	EvidenceWeb   EvidenceKind = "web"
)

// Evidence is one retrieved passage supporting an answer. Score is cosine
// similarity for local evidence and provider relevance for web evidence;
// the two scales are never compared with each other.
type Evidence struct {
	Kind      EvidenceKind `json:"kind"`
	Text      string       `json:"text"`
	Source    string       `json:"source"`
	URL       string       `json:"url,omitempty"`
	Score     float64      `json:"score"`
	Retrieved time.Time    `json:"retrieved"`
}

// ConfidenceAssessment is the 0-100 self-assessed score attached 1:1 to a
// synthesized answer.
type ConfidenceAssessment struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

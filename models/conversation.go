package models

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one completed request/response cycle stored in conversation
// history. ConversationID is the transport's opaque session key.
type Turn struct {
	ID              uuid.UUID `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	Seq             int       `json:"seq"`
	UserText        string    `json:"user_text"`
	AnswerText      string    `json:"answer_text"`
	ConfidenceScore int       `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// ConversationState is the ordered turn history plus the rolling summary.
// The pipeline reads it and appends at most one turn per request; long-term
// storage lifecycle belongs to the conversation store.
type ConversationState struct {
	ID      string `json:"id"`
	Turns   []Turn `json:"turns"`
	Summary string `json:"summary"`

	// SummarizedThrough is the Seq of the last turn covered by Summary.
	// Summarizing again with no newer turns returns Summary unchanged.
	SummarizedThrough int `json:"summarized_through"`
}

// TurnCount reports the number of stored turns.
func (s *ConversationState) TurnCount() int {
	return len(s.Turns)
}

// LastSeq returns the highest turn sequence number, or 0 for an empty
// conversation.
func (s *ConversationState) LastSeq() int {
	if len(s.Turns) == 0 {
		return 0
	}
	return s.Turns[len(s.Turns)-1].Seq
}

// RecentTurns returns up to n of the most recent turns, oldest first.
func (s *ConversationState) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	if len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

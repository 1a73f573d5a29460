package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
)

// Summarizer maintains the rolling conversation summary. The summary
// replaces its predecessor wholesale and is bounded by a fixed word budget.
type Summarizer struct {
	oracle         llm.Completer
	wordBudget     int
	turnThreshold  int
	tokenThreshold int
	oracleTimeout  time.Duration
}

// NewSummarizer creates a summarizer.
func NewSummarizer(oracle llm.Completer, cfg *config.Config) *Summarizer {
	return &Summarizer{
		oracle:         oracle,
		wordBudget:     cfg.SummaryWordBudget,
		turnThreshold:  cfg.SummaryTurnThreshold,
		tokenThreshold: cfg.SummaryTokenThreshold,
		oracleTimeout:  cfg.OracleTimeout,
	}
}

// NeedsSummary reports whether the conversation has grown past the turn or
// token-estimate threshold.
func (s *Summarizer) NeedsSummary(state *models.ConversationState) bool {
	if state.TurnCount() > s.turnThreshold {
		return true
	}
	return estimateTokens(state) > s.tokenThreshold
}

// Summarize folds the turns not yet covered into a fresh summary and
// returns it with the new coverage marker. With no new turns since the last
// summary it returns the existing one unchanged. On oracle failure the
// previous summary is retained and the error reported; callers fall back to
// passing recent raw turns downstream.
func (s *Summarizer) Summarize(ctx context.Context, state *models.ConversationState) (string, int, error) {
	lastSeq := state.LastSeq()
	if lastSeq <= state.SummarizedThrough {
		return state.Summary, state.SummarizedThrough, nil
	}

	var pending []models.Turn
	for _, turn := range state.Turns {
		if turn.Seq > state.SummarizedThrough {
			pending = append(pending, turn)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	resp, err := s.oracle.Complete(cctx, summaryPrompt(state.Summary, pending, s.wordBudget))
	if err != nil {
		return state.Summary, state.SummarizedThrough, fmt.Errorf("failed to summarize conversation: %w", err)
	}

	summary := strings.TrimSpace(resp)
	if summary == "" {
		return state.Summary, state.SummarizedThrough, llm.ErrEmptyCompletion
	}
	return summary, lastSeq, nil
}

// estimateTokens approximates token usage as characters over four.
func estimateTokens(state *models.ConversationState) int {
	chars := utf8.RuneCountInString(state.Summary)
	for _, turn := range state.Turns {
		chars += utf8.RuneCountInString(turn.UserText) + utf8.RuneCountInString(turn.AnswerText)
	}
	return chars / 4
}

func summaryPrompt(previous string, pending []models.Turn, wordBudget int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize this legal consultation so far in at most %d words, in Korean. Keep the user's situation, the legal issues raised, and any conclusions reached. The summary replaces the previous one, so carry forward everything still relevant.\n", wordBudget)

	if previous != "" {
		b.WriteString("\nPrevious summary:\n")
		b.WriteString(previous)
		b.WriteString("\n")
	}

	b.WriteString("\nNew turns:\n")
	for _, turn := range pending {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.UserText, turn.AnswerText)
	}
	return b.String()
}

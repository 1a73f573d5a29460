package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
)

// Synthesizer turns merged evidence into a cited answer with exactly one
// oracle call per turn. It never re-queries retrieval.
type Synthesizer struct {
	oracle        llm.Completer
	recentWindow  int
	oracleTimeout time.Duration
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(oracle llm.Completer, cfg *config.Config) *Synthesizer {
	return &Synthesizer{
		oracle:        oracle,
		recentWindow:  cfg.RecentTurnWindow,
		oracleTimeout: cfg.OracleTimeout,
	}
}

// Synthesize produces the answer text. The returned bool reports whether
// the answer rests on general knowledge only (no evidence retrieved); that
// flag feeds the confidence step as a strong low-confidence signal.
func (s *Synthesizer) Synthesize(ctx context.Context, q models.Query, evidence []models.Evidence, state *models.ConversationState) (string, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	generalOnly := len(evidence) == 0
	prompt := synthesisPrompt(q.Raw, evidence, conversationContext(state, s.recentWindow))

	answer, err := s.oracle.Complete(cctx, prompt)
	if err != nil {
		return "", generalOnly, fmt.Errorf("failed to synthesize answer: %w", err)
	}
	return strings.TrimSpace(answer), generalOnly, nil
}

// synthesisPrompt renders evidence in merge order with numbered citation
// labels the model is instructed to reference inline.
func synthesisPrompt(question string, evidence []models.Evidence, convContext string) string {
	var b strings.Builder

	b.WriteString("You are a Korean legal assistant. Answer the user's question in Korean based on the evidence below. Cite evidence inline using its bracketed number, naming the law and article or the web source. Do not invent sources.\n")

	if convContext != "" {
		b.WriteString("\nConversation context:\n")
		b.WriteString(convContext)
		b.WriteString("\n")
	}

	if len(evidence) == 0 {
		b.WriteString("\nNo evidence was retrieved for this question. State explicitly at the start of your answer that it is based only on general knowledge and the conversation context, not on retrieved legal sources.\n")
	} else {
		b.WriteString("\nEvidence:\n")
		for i, ev := range evidence {
			fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, evidenceCitation(ev), ev.Text)
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// evidenceCitation names the source for one piece of evidence. Web sources
// carry the retrieval date.
func evidenceCitation(ev models.Evidence) string {
	if ev.Kind == models.EvidenceWeb {
		cite := fmt.Sprintf("%s (retrieved %s)", ev.Source, ev.Retrieved.Format("2006-01-02"))
		if ev.URL != "" {
			cite += " " + ev.URL
		}
		return cite
	}
	return ev.Source
}

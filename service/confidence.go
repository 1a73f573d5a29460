package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
)

// Scores used when the oracle cannot be trusted to produce one.
const (
	// defaultConfidence substitutes for an unparseable assessment.
	defaultConfidence = 70
	// generalKnowledgeCap bounds the score of an answer produced with no
	// retrieved evidence, forcing it through the clarifier.
	generalKnowledgeCap = 60
)

// fallbackQuestions are served when the clarifier oracle call fails.
var fallbackQuestions = []string{
	"질문에 대해 좀 더 자세히 설명해 주시겠습니까?",
	"제가 고려해야 할 구체적인 데이터가 있습니까?",
}

// Assessor scores a synthesized answer and, below the threshold, produces
// supplement questions. This is a one-shot gate: it never re-queries
// retrieval and never withholds the answer.
type Assessor struct {
	oracle            llm.Completer
	threshold         int
	confidenceTimeout time.Duration
}

// NewAssessor creates an assessor with the configured confidence threshold.
func NewAssessor(oracle llm.Completer, cfg *config.Config) *Assessor {
	return &Assessor{
		oracle:            oracle,
		threshold:         cfg.ConfidenceThreshold,
		confidenceTimeout: cfg.ConfidenceTimeout,
	}
}

// Threshold returns the configured gate value.
func (a *Assessor) Threshold() int {
	return a.threshold
}

// Assess scores the answer 0-100 with reasoning. It never fails the turn:
// oracle or parse trouble substitutes the documented default score. An
// answer produced without evidence is capped below the gate.
func (a *Assessor) Assess(ctx context.Context, q models.Query, answer string, evidence []models.Evidence) models.ConfidenceAssessment {
	assessment := a.askOracle(ctx, q, answer, evidence)

	if len(evidence) == 0 && assessment.Score > generalKnowledgeCap {
		assessment.Score = generalKnowledgeCap
		assessment.Reasoning = "No retrieved evidence supports this answer. " + assessment.Reasoning
	}
	return assessment
}

func (a *Assessor) askOracle(ctx context.Context, q models.Query, answer string, evidence []models.Evidence) models.ConfidenceAssessment {
	cctx, cancel := context.WithTimeout(ctx, a.confidenceTimeout)
	defer cancel()

	resp, err := a.oracle.Complete(cctx, assessPrompt(q.Raw, answer, len(evidence)))
	if err != nil {
		log.Printf("Warning: confidence assessment failed, using default score: %v", err)
		return models.ConfidenceAssessment{Score: defaultConfidence, Reasoning: "Assessment unavailable."}
	}

	score, ok := llm.ParseScore(resp)
	if !ok {
		log.Printf("Warning: unparseable confidence response, using default score")
		return models.ConfidenceAssessment{Score: defaultConfidence, Reasoning: "Assessment unavailable."}
	}
	return models.ConfidenceAssessment{Score: score, Reasoning: strings.TrimSpace(resp)}
}

// NeedsClarification reports whether the score falls below the gate.
func (a *Assessor) NeedsClarification(assessment models.ConfidenceAssessment) bool {
	return assessment.Score < a.threshold
}

// Clarify produces 1-3 supplement questions for a below-threshold answer.
// On oracle or parse failure it serves the fixed fallback prompts.
func (a *Assessor) Clarify(ctx context.Context, q models.Query, answer string) []string {
	cctx, cancel := context.WithTimeout(ctx, a.confidenceTimeout)
	defer cancel()

	resp, err := a.oracle.Complete(cctx, clarifyPrompt(q.Raw, answer))
	if err != nil {
		log.Printf("Warning: clarification generation failed, using fallback questions: %v", err)
		return fallbackQuestions
	}

	questions, ok := llm.ParseStringList(resp)
	if !ok {
		log.Printf("Warning: unparseable clarification response, using fallback questions")
		return fallbackQuestions
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}
	return questions
}

func assessPrompt(question, answer string, evidenceCount int) string {
	return fmt.Sprintf(`Rate how confident you are that the following answer fully and correctly addresses the legal question, as an integer from 0 to 100. The answer drew on %d retrieved sources. Respond as JSON: {"score": N, "reason": "..."}

Question: %s

Answer: %s`, evidenceCount, question, answer)
}

func clarifyPrompt(question, answer string) string {
	return fmt.Sprintf(`The answer below may not fully address the user's legal question. Write 1 to 3 short follow-up questions in Korean that would let the user supply the missing details. Respond as a JSON array of strings.

Question: %s

Answer: %s`, question, answer)
}

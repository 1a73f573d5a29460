package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"lawchat-backend/config"
	"lawchat-backend/models"
)

// ErrTurnBudgetExceeded is returned when a turn runs past the total time
// budget. Partial results are discarded, never returned unlabeled.
var ErrTurnBudgetExceeded = errors.New("turn exceeded the time budget")

// greetingAnswer is served on the greeting fast-path without any retrieval.
const greetingAnswer = "안녕하세요! 한국 법률 관련 질문을 도와드리는 상담 챗봇입니다. 어떤 법률 문제가 궁금하신가요?"

// ConversationStore is the persistence boundary for conversation state.
type ConversationStore interface {
	Load(ctx context.Context, id string) (*models.ConversationState, error)
	Append(ctx context.Context, turn *models.Turn) error
	UpdateSummary(ctx context.Context, id, summary string, through int) error
	Clear(ctx context.Context, id string) error
}

// TurnResult is the user-visible outcome of one turn.
type TurnResult struct {
	Answer               string                 `json:"answer"`
	ConfidenceScore      int                    `json:"confidence_score"`
	SupplementQuestions  []string               `json:"supplement_questions,omitempty"`
	Routing              models.RoutingDecision `json:"routing"`
	GeneralKnowledgeOnly bool                   `json:"general_knowledge_only"`
	Phase                models.TurnPhase       `json:"-"`
}

// Pipeline drives one turn through the fixed state sequence. Retrieval
// paths inside a state may run concurrently, but no two states execute
// concurrently for the same turn.
type Pipeline struct {
	router        *Router
	executor      *Executor
	synthesizer   *Synthesizer
	assessor      *Assessor
	summarizer    *Summarizer
	conversations ConversationStore
	turnBudget    time.Duration

	// Turn ordering per conversation: last writer wins, keyed by start
	// order, so a stale turn never overwrites a newer one's state.
	mu      sync.Mutex
	counter uint64
	latest  map[string]uint64
}

// NewPipeline wires the turn pipeline together.
func NewPipeline(router *Router, executor *Executor, synthesizer *Synthesizer, assessor *Assessor, summarizer *Summarizer, conversations ConversationStore, cfg *config.Config) *Pipeline {
	return &Pipeline{
		router:        router,
		executor:      executor,
		synthesizer:   synthesizer,
		assessor:      assessor,
		summarizer:    summarizer,
		conversations: conversations,
		turnBudget:    cfg.TurnBudget,
		latest:        make(map[string]uint64),
	}
}

// turnContext is the state object threaded through the phase transitions.
type turnContext struct {
	phase       models.TurnPhase
	query       models.Query
	state       *models.ConversationState
	decision    models.RoutingDecision
	evidence    []models.Evidence
	answer      string
	generalOnly bool
	assessment  models.ConfidenceAssessment
	questions   []string
}

// HandleTurn runs one complete turn. It is safe for concurrent use across
// conversations; concurrent turns on the same conversation race to be the
// latest starter, and only the latest one's result is persisted.
func (p *Pipeline) HandleTurn(ctx context.Context, conversationID, userText string) (*TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.turnBudget)
	defer cancel()

	order := p.registerStart(conversationID)

	tc := &turnContext{
		phase: models.PhaseReceived,
		query: models.Query{ConversationID: conversationID, Raw: userText},
	}

	for tc.phase != models.PhaseDone && tc.phase != models.PhaseAwaitingClarification {
		if ctx.Err() != nil {
			return nil, ErrTurnBudgetExceeded
		}

		switch tc.phase {
		case models.PhaseReceived:
			state, err := p.conversations.Load(ctx, conversationID)
			if err != nil {
				return nil, p.turnErr(fmt.Errorf("failed to load conversation: %w", err))
			}
			tc.state = state
			p.refreshSummary(ctx, order, tc.state)
			tc.phase = models.PhaseAugmenting

		case models.PhaseAugmenting:
			// The router rewrites the query, then classifies it.
			tc.decision = p.router.Route(ctx, &tc.query, tc.state)
			tc.phase = models.PhaseRouted

		case models.PhaseRouted:
			if tc.decision == models.RouteNone {
				tc.answer = greetingAnswer
				tc.assessment = models.ConfidenceAssessment{Score: 100, Reasoning: "Greeting."}
				tc.phase = models.PhaseDone
				continue
			}
			tc.phase = models.PhaseRetrieving

		case models.PhaseRetrieving:
			tc.evidence = p.executor.Retrieve(ctx, tc.query, tc.decision)
			tc.phase = models.PhaseSynthesizing

		case models.PhaseSynthesizing:
			answer, generalOnly, err := p.synthesizer.Synthesize(ctx, tc.query, tc.evidence, tc.state)
			if err != nil {
				return nil, p.turnErr(err)
			}
			tc.answer = answer
			tc.generalOnly = generalOnly
			tc.phase = models.PhaseAssessing

		case models.PhaseAssessing:
			tc.assessment = p.assessor.Assess(ctx, tc.query, tc.answer, tc.evidence)
			if p.assessor.NeedsClarification(tc.assessment) {
				tc.questions = p.assessor.Clarify(ctx, tc.query, tc.answer)
				tc.phase = models.PhaseAwaitingClarification
			} else {
				tc.phase = models.PhaseDone
			}
		}
	}

	p.persistTurn(ctx, order, tc)

	return &TurnResult{
		Answer:               tc.answer,
		ConfidenceScore:      tc.assessment.Score,
		SupplementQuestions:  tc.questions,
		Routing:              tc.decision,
		GeneralKnowledgeOnly: tc.generalOnly,
		Phase:                tc.phase,
	}, nil
}

// History returns the stored conversation state.
func (p *Pipeline) History(ctx context.Context, conversationID string) (*models.ConversationState, error) {
	return p.conversations.Load(ctx, conversationID)
}

// Clear removes a conversation and its turns.
func (p *Pipeline) Clear(ctx context.Context, conversationID string) error {
	return p.conversations.Clear(ctx, conversationID)
}

// refreshSummary folds the conversation into a fresh summary when it has
// grown past the thresholds. Failure keeps the previous summary; the recent
// raw turns still reach downstream prompts. The new summary always feeds
// this turn's prompts, but it is persisted only while this turn is still
// the latest starter, so a turn superseded during a slow summarize call
// cannot overwrite a newer turn's summary.
func (p *Pipeline) refreshSummary(ctx context.Context, order uint64, state *models.ConversationState) {
	if !p.summarizer.NeedsSummary(state) {
		return
	}

	summary, through, err := p.summarizer.Summarize(ctx, state)
	if err != nil {
		log.Printf("Warning: summarization failed, keeping previous summary: %v", err)
		return
	}
	if through == state.SummarizedThrough {
		return
	}

	state.Summary = summary
	state.SummarizedThrough = through

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest[state.ID] != order {
		log.Printf("Warning: abandoning stale summary write for conversation %s", state.ID)
		return
	}
	if err := p.conversations.UpdateSummary(ctx, state.ID, summary, through); err != nil {
		log.Printf("Warning: failed to persist summary: %v", err)
	}
}

// persistTurn appends the completed turn unless a newer turn has started on
// the same conversation since this one began.
func (p *Pipeline) persistTurn(ctx context.Context, order uint64, tc *turnContext) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.latest[tc.query.ConversationID] != order {
		log.Printf("Warning: abandoning stale turn for conversation %s", tc.query.ConversationID)
		return
	}

	turn := &models.Turn{
		ID:              uuid.New(),
		ConversationID:  tc.query.ConversationID,
		Seq:             tc.state.LastSeq() + 1,
		UserText:        tc.query.Raw,
		AnswerText:      tc.answer,
		ConfidenceScore: tc.assessment.Score,
	}
	if err := p.conversations.Append(ctx, turn); err != nil {
		log.Printf("Warning: failed to persist turn: %v", err)
	}
}

func (p *Pipeline) registerStart(conversationID string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
	p.latest[conversationID] = p.counter
	return p.counter
}

func (p *Pipeline) turnErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTurnBudgetExceeded
	}
	return err
}

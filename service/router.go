package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
)

// Router rewrites the raw query into a formal search form and decides which
// retrieval paths run. The decision is made once per turn and never
// revisited mid-turn.
type Router struct {
	oracle        llm.Completer
	webAvailable  bool
	recentWindow  int
	oracleTimeout time.Duration
}

// NewRouter creates a router. webAvailable gates the WEB path: without a
// configured web search provider it is never selected.
func NewRouter(oracle llm.Completer, webAvailable bool, cfg *config.Config) *Router {
	return &Router{
		oracle:        oracle,
		webAvailable:  webAvailable,
		recentWindow:  cfg.RecentTurnWindow,
		oracleTimeout: cfg.OracleTimeout,
	}
}

// Greetings shorter than this rune count skip retrieval entirely.
const greetingMaxLen = 20

var greetingKeywords = []string{
	"안녕", "반가", "하이", "감사", "고마워",
	"hello", "hi", "hey", "thanks", "thank you",
}

// Queries mentioning these need recency the static corpus cannot cover.
var recencyKeywords = []string{
	"최근", "개정", "뉴스", "오늘", "요즘", "새로운", "판례 변경", "시행",
	"recent", "news", "latest", "today", "current", "update",
}

// Route classifies one turn. It never fails: rewrite trouble degrades to
// the raw query and classifier trouble degrades to both paths.
func (r *Router) Route(ctx context.Context, q *models.Query, state *models.ConversationState) models.RoutingDecision {
	if isGreeting(q.Raw) {
		return models.RouteNone
	}

	q.Augmented = r.rewrite(ctx, q.Raw, state)

	if hasRecencyNeed(q.Raw) || hasRecencyNeed(q.Augmented) {
		return r.withWebStripped(models.RouteLocalAndWeb)
	}

	return r.withWebStripped(r.classify(ctx, q.Retrieval()))
}

func isGreeting(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) >= greetingMaxLen {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range greetingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasRecencyNeed(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range recencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// rewrite turns the raw user text into a formal, self-contained search
// query using the conversation context. Returns "" on failure; callers fall
// back to the raw text.
func (r *Router) rewrite(ctx context.Context, raw string, state *models.ConversationState) string {
	cctx, cancel := context.WithTimeout(ctx, r.oracleTimeout)
	defer cancel()

	resp, err := r.oracle.Complete(cctx, rewritePrompt(raw, conversationContext(state, r.recentWindow)))
	if err != nil {
		log.Printf("Warning: query rewrite failed, using raw query: %v", err)
		return ""
	}

	rewritten := strings.TrimSpace(resp)
	if rewritten == "" || utf8.RuneCountInString(rewritten) > 4*utf8.RuneCountInString(raw)+200 {
		return ""
	}
	return rewritten
}

// classify asks the oracle which retrieval paths the query needs.
func (r *Router) classify(ctx context.Context, query string) models.RoutingDecision {
	cctx, cancel := context.WithTimeout(ctx, r.oracleTimeout)
	defer cancel()

	resp, err := r.oracle.Complete(cctx, classifyPrompt(query))
	if err != nil {
		log.Printf("Warning: route classification failed, using both paths: %v", err)
		return models.RouteLocalAndWeb
	}

	upper := strings.ToUpper(resp)
	switch {
	case strings.Contains(upper, "BOTH"):
		return models.RouteLocalAndWeb
	case strings.Contains(upper, "WEB"):
		return models.RouteWeb
	case strings.Contains(upper, "LOCAL"):
		return models.RouteLocal
	default:
		return models.RouteLocalAndWeb
	}
}

func (r *Router) withWebStripped(d models.RoutingDecision) models.RoutingDecision {
	if r.webAvailable || !d.IncludesWeb() {
		return d
	}
	return models.RouteLocal
}

// conversationContext renders the summary plus the most recent turns for
// prompt building.
func conversationContext(state *models.ConversationState, window int) string {
	if state == nil {
		return ""
	}

	var b strings.Builder
	if state.Summary != "" {
		b.WriteString("Conversation summary:\n")
		b.WriteString(state.Summary)
		b.WriteString("\n\n")
	}
	for _, turn := range state.RecentTurns(window) {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.UserText, turn.AnswerText)
	}
	return strings.TrimSpace(b.String())
}

func rewritePrompt(raw, convContext string) string {
	return fmt.Sprintf(`You are a legal search assistant for Korean law. Rewrite the user's question into a single formal, self-contained search query in Korean, resolving any references to the earlier conversation. Respond with only the rewritten query.

Conversation context:
%s

User question: %s`, convContext, raw)
}

func classifyPrompt(query string) string {
	return fmt.Sprintf(`Decide which retrieval sources the following Korean legal question needs. Answer with exactly one word:
LOCAL - the static statute corpus is sufficient (definitions, meaning of articles, established doctrine)
WEB - only current information is needed (breaking news with no statutory angle)
BOTH - the question needs statutes plus recent developments (amendments, new precedents, pending legislation)

Question: %s`, query)
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawchat-backend/models"
)

func TestRouteGreetingSkipsRetrieval(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("no oracle call expected for a greeting")
		return "", nil
	})
	router := NewRouter(oracle, true, testConfig())

	q := &models.Query{Raw: "안녕하세요!"}
	decision := router.Route(context.Background(), q, &models.ConversationState{})

	assert.Equal(t, models.RouteNone, decision)
	assert.Empty(t, q.Augmented)
}

func TestRouteRecencyIncludesWeb(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		require.Contains(t, prompt, "Rewrite the user's question")
		return "최근 개정된 근로기준법 주요 내용", nil
	})
	router := NewRouter(oracle, true, testConfig())

	q := &models.Query{Raw: "최근 개정된 근로기준법은?"}
	decision := router.Route(context.Background(), q, &models.ConversationState{})

	assert.True(t, decision.IncludesWeb())
	assert.True(t, decision.IncludesLocal())
}

func TestRouteStatuteQuestionIsLocalOnly(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Rewrite the user's question") {
			return "민법 제103조 반사회질서의 법률행위 의미", nil
		}
		return "LOCAL", nil
	})
	router := NewRouter(oracle, true, testConfig())

	q := &models.Query{Raw: "민법 제103조의 의미는?"}
	decision := router.Route(context.Background(), q, &models.ConversationState{})

	assert.Equal(t, models.RouteLocal, decision)
	assert.Equal(t, "민법 제103조 반사회질서의 법률행위 의미", q.Retrieval())
}

func TestRouteRewriteFailureKeepsRawQuery(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Rewrite the user's question") {
			return "", errTest("rewrite down")
		}
		return "LOCAL", nil
	})
	router := NewRouter(oracle, true, testConfig())

	q := &models.Query{Raw: "임대차 보증금 반환 절차"}
	decision := router.Route(context.Background(), q, &models.ConversationState{})

	assert.Equal(t, models.RouteLocal, decision)
	assert.Empty(t, q.Augmented)
	assert.Equal(t, q.Raw, q.Retrieval())
}

func TestRouteClassifierFailureUsesBothPaths(t *testing.T) {
	router := NewRouter(failingCompleter("oracle down"), true, testConfig())

	q := &models.Query{Raw: "계약 해지 시 위약금은 어떻게 되나요?"}
	decision := router.Route(context.Background(), q, &models.ConversationState{})

	assert.Equal(t, models.RouteLocalAndWeb, decision)
}

func TestRouteWebNeverSelectedWithoutProvider(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Rewrite the user's question") {
			return "최근 판례 동향", nil
		}
		return "WEB", nil
	})
	router := NewRouter(oracle, false, testConfig())

	q := &models.Query{Raw: "최근 판례 동향을 알려줘"}
	decision := router.Route(context.Background(), q, &models.ConversationState{})

	assert.Equal(t, models.RouteLocal, decision)
	assert.False(t, decision.IncludesWeb())
}

func TestRouteUsesConversationContext(t *testing.T) {
	var rewritePrompt string
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Rewrite the user's question") {
			rewritePrompt = prompt
			return "임대차 계약 갱신 거절 사유", nil
		}
		return "LOCAL", nil
	})
	router := NewRouter(oracle, true, testConfig())

	state := &models.ConversationState{
		Summary: "임대차 계약 분쟁 상담 중",
		Turns: []models.Turn{
			{Seq: 1, UserText: "집주인이 갱신을 거절했어요", AnswerText: "갱신요구권은 주택임대차보호법이 정합니다."},
		},
	}
	q := &models.Query{Raw: "그 사유가 뭐가 있나요?"}
	router.Route(context.Background(), q, state)

	assert.Contains(t, rewritePrompt, "임대차 계약 분쟁 상담 중")
	assert.Contains(t, rewritePrompt, "집주인이 갱신을 거절했어요")
}

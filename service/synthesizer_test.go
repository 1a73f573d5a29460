package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawchat-backend/models"
)

func TestSynthesizeRendersEvidenceInMergeOrder(t *testing.T) {
	var captured string
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return "민법 제103조에 따르면 반사회질서의 법률행위는 무효입니다 [1].", nil
	})

	evidence := []models.Evidence{
		{Kind: models.EvidenceLocal, Text: "제103조 조문", Source: "민법 제103조", Score: 0.9, Retrieved: time.Now()},
		{Kind: models.EvidenceWeb, Text: "해설 기사", Source: "법률신문", URL: "https://example.com", Score: 0.95, Retrieved: time.Now()},
	}

	synth := NewSynthesizer(oracle, testConfig())
	answer, generalOnly, err := synth.Synthesize(context.Background(), models.Query{Raw: "민법 제103조?"}, evidence, &models.ConversationState{})

	require.NoError(t, err)
	assert.False(t, generalOnly)
	assert.NotEmpty(t, answer)

	localPos := strings.Index(captured, "[1] 민법 제103조")
	webPos := strings.Index(captured, "[2] 법률신문")
	require.GreaterOrEqual(t, localPos, 0)
	require.GreaterOrEqual(t, webPos, 0)
	assert.Less(t, localPos, webPos, "local citations must precede web citations")
	assert.Contains(t, captured, "retrieved", "web citations carry the retrieval date")
}

func TestSynthesizeEmptyEvidenceSetsGeneralKnowledgeFlag(t *testing.T) {
	var captured string
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return "검색된 법령 자료 없이 일반 지식에 기반한 답변입니다.", nil
	})

	synth := NewSynthesizer(oracle, testConfig())
	answer, generalOnly, err := synth.Synthesize(context.Background(), models.Query{Raw: "질문"}, nil, &models.ConversationState{})

	require.NoError(t, err)
	assert.True(t, generalOnly)
	assert.NotEmpty(t, answer)
	assert.Contains(t, captured, "general knowledge")
}

func TestSynthesizeOracleFailurePropagates(t *testing.T) {
	synth := NewSynthesizer(failingCompleter("oracle down"), testConfig())

	_, _, err := synth.Synthesize(context.Background(), models.Query{Raw: "질문"}, nil, &models.ConversationState{})
	assert.Error(t, err)
}

func TestSynthesizeIncludesConversationContext(t *testing.T) {
	var captured string
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return "답변", nil
	})

	state := &models.ConversationState{
		Summary: "전세 보증금 분쟁 상담",
		Turns:   []models.Turn{{Seq: 1, UserText: "보증금을 못 받고 있어요", AnswerText: "임차권등기명령을 검토하세요."}},
	}

	synth := NewSynthesizer(oracle, testConfig())
	_, _, err := synth.Synthesize(context.Background(), models.Query{Raw: "다음 절차는요?"}, nil, state)

	require.NoError(t, err)
	assert.Contains(t, captured, "전세 보증금 분쟁 상담")
	assert.Contains(t, captured, "보증금을 못 받고 있어요")
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawchat-backend/models"
)

func someEvidence() []models.Evidence {
	return []models.Evidence{
		{Kind: models.EvidenceLocal, Text: "조문", Source: "민법 제103조", Score: 0.9, Retrieved: time.Now()},
	}
}

func TestAssessParsesUnstructuredScore(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		return "about 90, fairly certain", nil
	})
	assessor := NewAssessor(oracle, testConfig())

	assessment := assessor.Assess(context.Background(), models.Query{Raw: "질문"}, "답변", someEvidence())

	assert.Equal(t, 90, assessment.Score)
	assert.False(t, assessor.NeedsClarification(assessment))
}

func TestConfidenceGateBoundary(t *testing.T) {
	assessor := NewAssessor(nil, testConfig())

	assert.False(t, assessor.NeedsClarification(models.ConfidenceAssessment{Score: 85}))
	assert.True(t, assessor.NeedsClarification(models.ConfidenceAssessment{Score: 84}))
}

func TestAssessParseFailureUsesDefault(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		return "I am unable to provide a numeric rating.", nil
	})
	assessor := NewAssessor(oracle, testConfig())

	assessment := assessor.Assess(context.Background(), models.Query{Raw: "질문"}, "답변", someEvidence())

	assert.Equal(t, defaultConfidence, assessment.Score)
}

func TestAssessOracleFailureUsesDefault(t *testing.T) {
	assessor := NewAssessor(failingCompleter("oracle down"), testConfig())

	assessment := assessor.Assess(context.Background(), models.Query{Raw: "질문"}, "답변", someEvidence())

	assert.Equal(t, defaultConfidence, assessment.Score)
	assert.True(t, assessor.NeedsClarification(assessment))
}

func TestAssessEmptyEvidenceIsCapped(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"score": 95, "reason": "sounds right"}`, nil
	})
	assessor := NewAssessor(oracle, testConfig())

	assessment := assessor.Assess(context.Background(), models.Query{Raw: "질문"}, "답변", nil)

	assert.Equal(t, generalKnowledgeCap, assessment.Score)
	assert.True(t, assessor.NeedsClarification(assessment), "an unsupported answer always goes through the clarifier")
}

func TestClarifyReturnsBetweenOneAndThreeQuestions(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		return `["첫 번째 질문?", "두 번째 질문?", "세 번째 질문?", "네 번째 질문?"]`, nil
	})
	assessor := NewAssessor(oracle, testConfig())

	questions := assessor.Clarify(context.Background(), models.Query{Raw: "질문"}, "답변")

	require.NotEmpty(t, questions)
	assert.LessOrEqual(t, len(questions), 3)
	assert.Equal(t, "첫 번째 질문?", questions[0])
}

func TestClarifyFailureUsesFallbackQuestions(t *testing.T) {
	assessor := NewAssessor(failingCompleter("oracle down"), testConfig())

	questions := assessor.Clarify(context.Background(), models.Query{Raw: "질문"}, "답변")

	assert.Equal(t, fallbackQuestions, questions)
	assert.GreaterOrEqual(t, len(questions), 1)
	assert.LessOrEqual(t, len(questions), 3)
}

func TestClarifyUnparseableResponseUsesFallbackQuestions(t *testing.T) {
	oracle := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		return "죄송하지만 질문을 만들 수 없습니다.", nil
	})
	assessor := NewAssessor(oracle, testConfig())

	questions := assessor.Clarify(context.Background(), models.Query{Raw: "질문"}, "답변")
	assert.Equal(t, fallbackQuestions, questions)
}

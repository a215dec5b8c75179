package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/quiz-engine/internal/models"
	"github.com/brightpath-edu/quiz-engine/internal/repositories"
	"github.com/brightpath-edu/quiz-engine/internal/validator"
)

func newTestQuestionService(t *testing.T, questions []*models.Question) QuestionService {
	t.Helper()
	return NewQuestionService(&stubQuestionSource{questions: questions}, validator.New(), testLogger())
}

func TestQuestionService_Create(t *testing.T) {
	svc := newTestQuestionService(t, nil)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &CreateQuestionRequest{
		QuizID: "quiz-1",
		Type:   models.ShortAnswer,
		Prompt: "Capital of France?",
		Payload: models.ShortAnswerPayload{
			CorrectAnswer: "Paris",
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID, "id is generated when omitted")
	assert.False(t, resp.Misconfigured)

	stored, err := svc.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShortAnswer, stored.Type)
}

func TestQuestionService_CreateStoresMisconfigured(t *testing.T) {
	svc := newTestQuestionService(t, nil)

	// A broken answer key is stored and flagged, not rejected.
	resp, err := svc.Create(context.Background(), &CreateQuestionRequest{
		QuizID: "quiz-1",
		Type:   models.SingleChoice,
		Prompt: "Pick one",
		Payload: models.SingleChoicePayload{
			Options:       []string{"a", "b"},
			CorrectOption: 9,
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Misconfigured)
}

func TestQuestionService_CreateValidatesRequest(t *testing.T) {
	svc := newTestQuestionService(t, nil)

	_, err := svc.Create(context.Background(), &CreateQuestionRequest{
		QuizID: "quiz-1",
		Type:   models.QuestionType("essay"),
		Prompt: "prompt",
		Payload: map[string]string{
			"free_text": "anything",
		},
	})
	assert.Error(t, err)
}

func TestQuestionService_GetByIDNotFound(t *testing.T) {
	svc := newTestQuestionService(t, nil)

	_, err := svc.GetByID(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestQuestionService_GetByQuiz(t *testing.T) {
	svc := newTestQuestionService(t, defaultQuizQuestions(t))

	questions, err := svc.GetByQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Len(t, questions, 3)
	for _, q := range questions {
		assert.False(t, q.Misconfigured)
	}
}

func TestQuestionService_List(t *testing.T) {
	svc := newTestQuestionService(t, defaultQuizQuestions(t))

	resp, err := svc.List(context.Background(), repositories.QuestionFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Size)
}

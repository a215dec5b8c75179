package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/brightpath-edu/quiz-engine/internal/events"
	"github.com/brightpath-edu/quiz-engine/internal/models"
	"github.com/brightpath-edu/quiz-engine/internal/repositories"
	"github.com/brightpath-edu/quiz-engine/internal/validator"
)

// stubQuestionSource serves a fixed question list from memory.
type stubQuestionSource struct {
	questions []*models.Question
}

func (s *stubQuestionSource) Create(ctx context.Context, question *models.Question) error {
	s.questions = append(s.questions, question)
	return nil
}

func (s *stubQuestionSource) GetByID(ctx context.Context, id string) (*models.Question, error) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubQuestionSource) GetByQuiz(ctx context.Context, quizID string) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubQuestionSource) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return s.questions, int64(len(s.questions)), nil
}

func quizQuestion(t *testing.T, id string, qt models.QuestionType, payload interface{}) *models.Question {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &models.Question{
		ID:      id,
		QuizID:  "quiz-1",
		Type:    qt,
		Prompt:  "prompt " + id,
		Payload: datatypes.JSON(raw),
	}
}

func defaultQuizQuestions(t *testing.T) []*models.Question {
	t.Helper()
	return []*models.Question{
		quizQuestion(t, "q-single", models.SingleChoice, models.SingleChoicePayload{
			Options:       []string{"Berlin", "Paris", "Madrid"},
			CorrectOption: 2,
		}),
		quizQuestion(t, "q-multi", models.MultiChoice, models.MultiChoicePayload{
			Options:        []string{"2", "3", "4", "5"},
			CorrectOptions: []int{1, 3},
		}),
		quizQuestion(t, "q-blank", models.FillBlank, models.FillBlankPayload{
			Sentence: "The * fox and the * dog",
			Words: []models.BlankWord{
				{ID: 1, Text: "quick"},
				{ID: 2, Text: "lazy"},
			},
			Solutions: []models.BlankSolution{
				{SlotIndex: 0, WordID: 1},
				{SlotIndex: 1, WordID: 2},
			},
		}),
	}
}

func newTestSessionService(t *testing.T, questions []*models.Question) (SessionService, *events.MockResultPublisher) {
	t.Helper()
	publisher := events.NewMockResultPublisher()
	svc := NewSessionService(
		&stubQuestionSource{questions: questions},
		NewEvaluationService(testLogger()),
		publisher,
		testLogger(),
		validator.New(),
	)
	return svc, publisher
}

func startSession(t *testing.T, svc SessionService) *SessionResponse {
	t.Helper()
	session, err := svc.Start(context.Background(), &StartSessionRequest{QuizID: "quiz-1"})
	require.NoError(t, err)
	return session
}

func eventsOfType(publisher *events.MockResultPublisher, et events.EventType) []events.ResultEvent {
	var out []events.ResultEvent
	for _, e := range publisher.PublishedEvents() {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

// ===== LIFECYCLE =====

func TestSessionService_Start(t *testing.T) {
	svc, publisher := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()

	session := startSession(t, svc)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "quiz-1", session.QuizID)
	assert.Equal(t, 0, session.Cursor)
	assert.Equal(t, 3, session.Total)
	assert.False(t, session.Complete)
	require.NotNil(t, session.Current)
	assert.Equal(t, "q-single", session.Current.ID)
	assert.True(t, session.Current.IsFirst)

	// The first attempt exists immediately, unanswered.
	attempt, err := svc.GetAttempt(ctx, session.ID, "q-single")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptUnanswered, attempt.Status)
	assert.False(t, attempt.CanSubmit)

	assert.Eventually(t, func() bool {
		return len(eventsOfType(publisher, events.EventSessionStarted)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSessionService_StartEmptyQuiz(t *testing.T) {
	svc, _ := newTestSessionService(t, nil)

	_, err := svc.Start(context.Background(), &StartSessionRequest{QuizID: "quiz-1"})
	assert.ErrorIs(t, err, ErrQuizHasNoQuestions)
}

func TestSessionService_StartValidatesRequest(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))

	_, err := svc.Start(context.Background(), &StartSessionRequest{})
	assert.Error(t, err)
}

func TestSessionService_GetUnknownSession(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// ===== NAVIGATION =====

func TestSessionService_NavigationClamps(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	// Retreat on the first question stays put.
	resp, err := svc.Retreat(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Cursor)
	assert.True(t, resp.Current.IsFirst)

	resp, err = svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Cursor)
	assert.Equal(t, "q-multi", resp.Current.ID)

	resp, err = svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Cursor)
	assert.True(t, resp.Current.IsLast)

	// Advance on the last question stays put.
	resp, err = svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Cursor)
}

func TestSessionService_NavigationPreservesAttempts(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.SelectOption(ctx, session.ID, "q-single", 2)
	require.NoError(t, err)

	_, err = svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	_, err = svc.Retreat(ctx, session.ID)
	require.NoError(t, err)

	attempt, err := svc.GetAttempt(ctx, session.ID, "q-single")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	require.NotNil(t, attempt.Verdict)
	assert.True(t, attempt.Verdict.Correct)
}

// ===== SINGLE CHOICE =====

func TestSessionService_SelectOptionSubmitsImmediately(t *testing.T) {
	svc, publisher := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	attempt, err := svc.SelectOption(ctx, session.ID, "q-single", 2)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	require.NotNil(t, attempt.Verdict)
	assert.True(t, attempt.Verdict.Correct)
	assert.NotNil(t, attempt.SubmittedAt)

	assert.Eventually(t, func() bool {
		return len(eventsOfType(publisher, events.EventAnswerSubmitted)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSessionService_SelectOptionAfterSubmitIsNoOp(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	first, err := svc.SelectOption(ctx, session.ID, "q-single", 2)
	require.NoError(t, err)
	assert.True(t, first.Verdict.Correct)

	// A second selection cannot overwrite the recorded verdict.
	second, err := svc.SelectOption(ctx, session.ID, "q-single", 1)
	require.NoError(t, err)
	assert.True(t, second.Verdict.Correct)
	assert.Equal(t, *first.Answer.Option, *second.Answer.Option)
}

func TestSessionService_SelectOptionOutOfRangeIsIgnored(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	attempt, err := svc.SelectOption(ctx, session.ID, "q-single", 7)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptUnanswered, attempt.Status)
	assert.Nil(t, attempt.Verdict)
}

func TestSessionService_SelectOptionWrongType(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.SelectOption(ctx, session.ID, "q-multi", 1)
	assert.ErrorIs(t, err, ErrQuestionInvalidType)
}

// ===== BATCH TYPES =====

func TestSessionService_SaveAnswerMovesToPending(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	attempt, err := svc.SaveAnswer(ctx, session.ID, "q-multi", models.AnswerValue{Options: []int{1, 3}})
	require.NoError(t, err)
	assert.Equal(t, models.AttemptPending, attempt.Status)
	assert.True(t, attempt.CanSubmit)
	assert.Nil(t, attempt.Verdict, "verdict must not exist before submit")
}

func TestSessionService_SaveAnswerEmptyReverts(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.SaveAnswer(ctx, session.ID, "q-multi", models.AnswerValue{Options: []int{1}})
	require.NoError(t, err)

	attempt, err := svc.SaveAnswer(ctx, session.ID, "q-multi", models.AnswerValue{})
	require.NoError(t, err)
	assert.Equal(t, models.AttemptUnanswered, attempt.Status)
}

func TestSessionService_SaveAnswerRejectsSingleChoice(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.SaveAnswer(ctx, session.ID, "q-single", models.AnswerValue{Option: intPtr(1)})
	assert.ErrorIs(t, err, ErrQuestionInvalidType)
}

func TestSessionService_SubmitEvaluatesOnce(t *testing.T) {
	svc, publisher := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.SaveAnswer(ctx, session.ID, "q-multi", models.AnswerValue{Options: []int{3, 1}})
	require.NoError(t, err)

	attempt, err := svc.Submit(ctx, session.ID, "q-multi", nil)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	require.NotNil(t, attempt.Verdict)
	assert.True(t, attempt.Verdict.Correct)

	// Duplicate submit returns the stored verdict without re-evaluating.
	again, err := svc.Submit(ctx, session.ID, "q-multi", &SubmitRequest{
		Answer: &models.AnswerValue{Options: []int{2}},
	})
	require.NoError(t, err)
	assert.True(t, again.Verdict.Correct)
	assert.Equal(t, attempt.SubmittedAt.Unix(), again.SubmittedAt.Unix())

	assert.Eventually(t, func() bool {
		return len(eventsOfType(publisher, events.EventAnswerSubmitted)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSessionService_SubmitWithoutAnswer(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.Submit(ctx, session.ID, "q-multi", nil)
	assert.ErrorIs(t, err, ErrAnswerEmpty)
}

func TestSessionService_SubmitWithInlineAnswer(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	attempt, err := svc.Submit(ctx, session.ID, "q-multi", &SubmitRequest{
		Answer: &models.AnswerValue{Options: []int{1, 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	assert.False(t, attempt.Verdict.Correct)
}

// ===== FILL BLANK =====

func TestSessionService_PlacementLifecycle(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	attempt, err := svc.PlaceWord(ctx, session.ID, "q-blank", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptPending, attempt.Status)
	assert.Equal(t, models.Placement{0: 1}, attempt.Answer.Placement)

	// Moving the placed word leaves its old slot empty.
	attempt, err = svc.PlaceWord(ctx, session.ID, "q-blank", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Placement{1: 1}, attempt.Answer.Placement)

	// Returning the last word reverts the attempt to unanswered.
	attempt, err = svc.ReturnWord(ctx, session.ID, "q-blank", 1)
	require.NoError(t, err)
	assert.Empty(t, attempt.Answer.Placement)
	assert.Equal(t, models.AttemptUnanswered, attempt.Status)
}

func TestSessionService_PlaceWordIgnoresMalformedInput(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	// Unknown word id.
	attempt, err := svc.PlaceWord(ctx, session.ID, "q-blank", 99, 0)
	require.NoError(t, err)
	assert.Empty(t, attempt.Answer.Placement)

	// Slot beyond the sentence's blanks.
	attempt, err = svc.PlaceWord(ctx, session.ID, "q-blank", 1, 5)
	require.NoError(t, err)
	assert.Empty(t, attempt.Answer.Placement)
}

func TestSessionService_PlaceWordWrongType(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.PlaceWord(ctx, session.ID, "q-single", 1, 0)
	assert.ErrorIs(t, err, ErrQuestionInvalidType)
}

func TestSessionService_SubmitFillBlank(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.PlaceWord(ctx, session.ID, "q-blank", 1, 0)
	require.NoError(t, err)
	_, err = svc.PlaceWord(ctx, session.ID, "q-blank", 2, 1)
	require.NoError(t, err)

	attempt, err := svc.Submit(ctx, session.ID, "q-blank", nil)
	require.NoError(t, err)
	assert.True(t, attempt.Verdict.Correct)

	// Submitted placements are frozen.
	after, err := svc.PlaceWord(ctx, session.ID, "q-blank", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, models.Placement{0: 1, 1: 2}, after.Answer.Placement)
}

func TestSessionService_SubmitFillBlankUnfilled(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	// No ErrAnswerEmpty guard for fill_blank: an empty placement grades as
	// incorrect against non-empty solutions.
	attempt, err := svc.Submit(ctx, session.ID, "q-blank", nil)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	assert.False(t, attempt.Verdict.Correct)
}

// ===== COMPLETION AND REPORTING =====

func TestSessionService_CompletionEvent(t *testing.T) {
	svc, publisher := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.SelectOption(ctx, session.ID, "q-single", 2)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, session.ID, "q-multi", &SubmitRequest{
		Answer: &models.AnswerValue{Options: []int{1, 3}},
	})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, session.ID, "q-blank", nil)
	require.NoError(t, err)

	resp, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, resp.Complete)

	assert.Eventually(t, func() bool {
		return len(eventsOfType(publisher, events.EventSessionCompleted)) == 1
	}, time.Second, 10*time.Millisecond)

	completed := eventsOfType(publisher, events.EventSessionCompleted)[0]
	data, ok := completed.Data.(*events.SessionCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, 2, data.Correct)
}

func TestSessionService_PublishFailureDoesNotRollBack(t *testing.T) {
	svc, publisher := newTestSessionService(t, defaultQuizQuestions(t))
	publisher.FailWith = assert.AnError
	ctx := context.Background()
	session := startSession(t, svc)

	attempt, err := svc.SelectOption(ctx, session.ID, "q-single", 2)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)

	// The verdict stays recorded even though every publish failed.
	stored, err := svc.GetAttempt(ctx, session.ID, "q-single")
	require.NoError(t, err)
	assert.True(t, stored.Verdict.Correct)
}

func TestSessionService_QuestionNotInQuiz(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.GetAttempt(ctx, session.ID, "q-stranger")
	assert.ErrorIs(t, err, ErrQuestionNotInQuiz)
}

// ===== SUMMARY =====

func TestSessionService_Summary(t *testing.T) {
	svc, _ := newTestSessionService(t, defaultQuizQuestions(t))
	ctx := context.Background()
	session := startSession(t, svc)

	_, err := svc.SelectOption(ctx, session.ID, "q-single", 2)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, session.ID, "q-multi", &SubmitRequest{
		Answer: &models.AnswerValue{Options: []int{2}},
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Answered)
	assert.Equal(t, 1, summary.Correct)
	assert.False(t, summary.Complete)
	require.Len(t, summary.Questions, 3)

	assert.Equal(t, "Paris", summary.Questions[0].AnswerText)
	require.NotNil(t, summary.Questions[0].Correct)
	assert.True(t, *summary.Questions[0].Correct)

	require.NotNil(t, summary.Questions[1].Correct)
	assert.False(t, *summary.Questions[1].Correct)

	assert.Nil(t, summary.Questions[2].Correct)
	assert.Equal(t, models.AttemptUnanswered, summary.Questions[2].Status)
}

// ===== MISCONFIGURATION =====

func TestSessionService_MisconfiguredFlag(t *testing.T) {
	questions := defaultQuizQuestions(t)
	// CorrectOption outside the option range makes the key unusable.
	questions = append(questions, quizQuestion(t, "q-broken", models.SingleChoice, models.SingleChoicePayload{
		Options:       []string{"a", "b"},
		CorrectOption: 9,
	}))
	svc, _ := newTestSessionService(t, questions)
	ctx := context.Background()
	session := startSession(t, svc)

	attempt, err := svc.GetAttempt(ctx, session.ID, "q-broken")
	require.NoError(t, err)
	assert.True(t, attempt.Misconfigured)

	healthy, err := svc.GetAttempt(ctx, session.ID, "q-single")
	require.NoError(t, err)
	assert.False(t, healthy.Misconfigured)
}

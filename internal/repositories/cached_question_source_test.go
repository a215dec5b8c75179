package repositories

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/brightpath-edu/quiz-engine/internal/cache"
	"github.com/brightpath-edu/quiz-engine/internal/models"
)

// countingSource tracks how often the underlying store is hit.
type countingSource struct {
	questions  []*models.Question
	getByQuiz  int
	getByID    int
	listsCalls int
}

func (s *countingSource) Create(ctx context.Context, question *models.Question) error {
	s.questions = append(s.questions, question)
	return nil
}

func (s *countingSource) GetByID(ctx context.Context, id string) (*models.Question, error) {
	s.getByID++
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, ErrNotFound
}

func (s *countingSource) GetByQuiz(ctx context.Context, quizID string) ([]*models.Question, error) {
	s.getByQuiz++
	var out []*models.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *countingSource) List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error) {
	s.listsCalls++
	return s.questions, int64(len(s.questions)), nil
}

func newCachedSource(t *testing.T, source QuestionSource) QuestionSource {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewCachedQuestionSource(source, cache.NewHelper(client, "test:"), logger)
}

func testQuestion(id, quizID string) *models.Question {
	return &models.Question{
		ID:      id,
		QuizID:  quizID,
		Type:    models.ShortAnswer,
		Prompt:  "prompt",
		Payload: datatypes.JSON([]byte(`{"correct_answer":"Paris"}`)),
	}
}

func TestCachedQuestionSource_GetByQuizCachesResult(t *testing.T) {
	underlying := &countingSource{questions: []*models.Question{
		testQuestion("q-1", "quiz-1"),
		testQuestion("q-2", "quiz-1"),
	}}
	source := newCachedSource(t, underlying)
	ctx := context.Background()

	first, err := source.GetByQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, underlying.getByQuiz)

	second, err := source.GetByQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, 1, underlying.getByQuiz, "second fetch must be served from cache")
}

func TestCachedQuestionSource_CreateInvalidates(t *testing.T) {
	underlying := &countingSource{questions: []*models.Question{
		testQuestion("q-1", "quiz-1"),
	}}
	source := newCachedSource(t, underlying)
	ctx := context.Background()

	_, err := source.GetByQuiz(ctx, "quiz-1")
	require.NoError(t, err)

	require.NoError(t, source.Create(ctx, testQuestion("q-2", "quiz-1")))

	questions, err := source.GetByQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Len(t, questions, 2)
	assert.Equal(t, 2, underlying.getByQuiz, "cache must be invalidated by create")
}

func TestCachedQuestionSource_GetByIDBypassesCache(t *testing.T) {
	underlying := &countingSource{questions: []*models.Question{
		testQuestion("q-1", "quiz-1"),
	}}
	source := newCachedSource(t, underlying)
	ctx := context.Background()

	q, err := source.GetByID(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "q-1", q.ID)

	_, err = source.GetByID(ctx, "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedQuestionSource_NoRedisFallsThrough(t *testing.T) {
	underlying := &countingSource{questions: []*models.Question{
		testQuestion("q-1", "quiz-1"),
	}}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	source := NewCachedQuestionSource(underlying, cache.NewHelper(nil, "test:"), logger)
	ctx := context.Background()

	questions, err := source.GetByQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Len(t, questions, 1)

	// Every fetch hits the source when no cache is configured.
	_, err = source.GetByQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, 2, underlying.getByQuiz)
}

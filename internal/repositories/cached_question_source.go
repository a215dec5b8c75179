package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brightpath-edu/quiz-engine/internal/cache"
	"github.com/brightpath-edu/quiz-engine/internal/models"
)

// cachedQuestionSource puts a Redis cache in front of a QuestionSource for
// the per-quiz fetch done at session start. Cache failures fall through to
// the underlying source.
type cachedQuestionSource struct {
	source QuestionSource
	cache  *cache.Helper
	logger *slog.Logger
}

func NewCachedQuestionSource(source QuestionSource, cacheHelper *cache.Helper, logger *slog.Logger) QuestionSource {
	return &cachedQuestionSource{
		source: source,
		cache:  cacheHelper,
		logger: logger,
	}
}

func (s *cachedQuestionSource) Create(ctx context.Context, question *models.Question) error {
	if err := s.source.Create(ctx, question); err != nil {
		return err
	}
	// Invalidate the quiz's question set so new sessions see the question.
	if err := s.cache.Delete(ctx, quizKey(question.QuizID)); err != nil {
		s.logger.Warn("Failed to invalidate quiz cache", "quiz_id", question.QuizID, "error", err)
	}
	return nil
}

func (s *cachedQuestionSource) GetByID(ctx context.Context, id string) (*models.Question, error) {
	return s.source.GetByID(ctx, id)
}

func (s *cachedQuestionSource) GetByQuiz(ctx context.Context, quizID string) ([]*models.Question, error) {
	var cached []*models.Question
	err := s.cache.Get(ctx, quizKey(quizID), &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		s.logger.Warn("Quiz cache lookup failed", "quiz_id", quizID, "error", err)
	}

	questions, err := s.source.GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, quizKey(quizID), questions, cache.DefaultTTL); err != nil {
		s.logger.Warn("Failed to cache quiz questions", "quiz_id", quizID, "error", err)
	}

	return questions, nil
}

func (s *cachedQuestionSource) List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error) {
	return s.source.List(ctx, filters)
}

func quizKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:questions", quizID)
}

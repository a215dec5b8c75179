package repositories

import (
	"context"
	"errors"

	"github.com/brightpath-edu/quiz-engine/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err indicates a missing record.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type QuestionFilters struct {
	QuizID *string              `json:"quiz_id"`
	Type   *models.QuestionType `json:"type"`
	Page   int                  `json:"page"`
	Size   int                  `json:"size"`
}

// QuestionSource supplies the immutable question list consumed by quiz
// sessions, plus the administration operations needed to populate it.
type QuestionSource interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	GetByQuiz(ctx context.Context, quizID string) ([]*models.Question, error)
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
}

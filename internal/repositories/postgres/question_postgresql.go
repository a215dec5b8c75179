package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/brightpath-edu/quiz-engine/internal/models"
	"github.com/brightpath-edu/quiz-engine/internal/repositories"
)

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository creates a gorm-backed QuestionSource.
func NewQuestionRepository(db *gorm.DB) repositories.QuestionSource {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (r *questionRepository) GetByQuiz(ctx context.Context, quizID string) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("\"order\" ASC, created_at ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz: %w", err)
	}
	return questions, nil
}

func (r *questionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{})

	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	size := filters.Size
	if size < 1 || size > 100 {
		size = 20
	}

	var questions []*models.Question
	err := query.
		Order("quiz_id ASC, \"order\" ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&questions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brightpath-edu/quiz-engine/internal/models"
	"github.com/brightpath-edu/quiz-engine/internal/repositories"
	"github.com/brightpath-edu/quiz-engine/internal/validator"
)

type questionService struct {
	source    repositories.QuestionSource
	validator *validator.Validator
	logger    *slog.Logger
}

func NewQuestionService(source repositories.QuestionSource, v *validator.Validator, logger *slog.Logger) QuestionService {
	return &questionService{
		source:    source,
		validator: v,
		logger:    logger,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest) (*QuestionResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionInvalidContent, err)
	}

	question := &models.Question{
		ID:      req.ID,
		QuizID:  req.QuizID,
		Type:    req.Type,
		Prompt:  req.Prompt,
		Order:   req.Order,
		Payload: datatypes.JSON(payload),
	}
	if question.ID == "" {
		question.ID = uuid.NewString()
	}

	// Configuration issues are surfaced at creation time so authoring tools
	// can fix them, but a misconfigured question is still stored: sessions
	// flag it instead of failing.
	issues := s.validator.Question().ValidateConfiguration(question)
	if len(issues) > 0 {
		s.logger.Warn("Storing misconfigured question",
			"question_id", question.ID,
			"quiz_id", question.QuizID,
			"issues", issues.Error())
	}

	if err := s.source.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"quiz_id", question.QuizID,
		"type", question.Type)

	return &QuestionResponse{Question: question, Misconfigured: len(issues) > 0}, nil
}

func (s *questionService) GetByID(ctx context.Context, id string) (*QuestionResponse, error) {
	question, err := s.source.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return s.buildResponse(question), nil
}

func (s *questionService) GetByQuiz(ctx context.Context, quizID string) ([]*QuestionResponse, error) {
	questions, err := s.source.GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz questions: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, s.buildResponse(q))
	}
	return responses, nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error) {
	questions, total, err := s.source.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, s.buildResponse(q))
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	size := filters.Size
	if size < 1 {
		size = 20
	}

	return &QuestionListResponse{
		Questions: responses,
		Total:     total,
		Page:      page,
		Size:      size,
	}, nil
}

func (s *questionService) buildResponse(question *models.Question) *QuestionResponse {
	issues := s.validator.Question().ValidateConfiguration(question)
	return &QuestionResponse{Question: question, Misconfigured: len(issues) > 0}
}

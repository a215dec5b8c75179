package services

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brightpath-edu/quiz-engine/internal/models"
	"github.com/brightpath-edu/quiz-engine/internal/repositories"
)

// ===== SESSION RELATED DTOs =====

type StartSessionRequest struct {
	QuizID string `json:"quiz_id" validate:"required"`
}

type SessionResponse struct {
	ID        string        `json:"id"`
	QuizID    string        `json:"quiz_id"`
	Cursor    int           `json:"cursor"`
	Total     int           `json:"total"`
	Complete  bool          `json:"complete"`
	StartedAt time.Time     `json:"started_at"`
	Current   *QuestionView `json:"current,omitempty"`
}

// QuestionView is the display surface of a question: prompt and choices
// without the answer key fields.
type QuestionView struct {
	ID      string              `json:"id"`
	Type    models.QuestionType `json:"type"`
	Prompt  string              `json:"prompt"`
	IsFirst bool                `json:"is_first"`
	IsLast  bool                `json:"is_last"`

	Options  []string           `json:"options,omitempty"`  // choice types
	Items    []string           `json:"items,omitempty"`    // ordering
	Sentence string             `json:"sentence,omitempty"` // fill_blank
	Blanks   int                `json:"blanks,omitempty"`   // fill_blank
	Bank     []models.BlankWord `json:"bank,omitempty"`     // fill_blank, unplaced words
}

type AttemptResponse struct {
	*models.Attempt
	CanSubmit bool `json:"can_submit"`
}

type SaveAnswerRequest struct {
	Answer models.AnswerValue `json:"answer"`
}

type SelectOptionRequest struct {
	Option int `json:"option" validate:"required,min=1"`
}

type PlaceWordRequest struct {
	WordID int `json:"word_id" validate:"required,min=1"`
	Slot   int `json:"slot" validate:"min=0"`
}

type SubmitRequest struct {
	Answer *models.AnswerValue `json:"answer,omitempty"`
}

type QuestionResult struct {
	QuestionID string               `json:"question_id"`
	Prompt     string               `json:"prompt"`
	Type       models.QuestionType  `json:"type"`
	Status     models.AttemptStatus `json:"status"`
	AnswerText string               `json:"answer_text,omitempty"`
	Correct    *bool                `json:"correct,omitempty"`
}

type SessionSummary struct {
	SessionID string           `json:"session_id"`
	QuizID    string           `json:"quiz_id"`
	Total     int              `json:"total"`
	Answered  int              `json:"answered"`
	Correct   int              `json:"correct"`
	Complete  bool             `json:"complete"`
	StartedAt time.Time        `json:"started_at"`
	Questions []QuestionResult `json:"questions"`
}

// ===== QUESTION RELATED DTOs =====

type CreateQuestionRequest struct {
	ID      string              `json:"id" validate:"omitempty,max=64"`
	QuizID  string              `json:"quiz_id" validate:"required,max=64"`
	Type    models.QuestionType `json:"type" validate:"required,question_type"`
	Prompt  string              `json:"prompt" validate:"required,max=2000"`
	Order   int                 `json:"order"`
	Payload interface{}         `json:"payload" validate:"required"`
}

type QuestionResponse struct {
	*models.Question
	Misconfigured bool `json:"misconfigured"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

// ===== SERVICE INTERFACES =====

// EvaluationService produces a local, optimistic verdict for a candidate
// answer against a question's answer key. Pure: no side effects, never
// fails into the caller - malformed input yields an incorrect verdict.
type EvaluationService interface {
	Evaluate(question *models.Question, answer *models.AnswerValue) models.Verdict
}

// SessionService owns the in-memory quiz sessions: navigation, the
// per-question attempt lifecycle and result reporting.
type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest) (*SessionResponse, error)
	Get(ctx context.Context, sessionID string) (*SessionResponse, error)
	CurrentQuestion(ctx context.Context, sessionID string) (*QuestionView, error)
	Advance(ctx context.Context, sessionID string) (*SessionResponse, error)
	Retreat(ctx context.Context, sessionID string) (*SessionResponse, error)

	GetAttempt(ctx context.Context, sessionID, questionID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, sessionID, questionID string, answer models.AnswerValue) (*AttemptResponse, error)
	SelectOption(ctx context.Context, sessionID, questionID string, option int) (*AttemptResponse, error)
	PlaceWord(ctx context.Context, sessionID, questionID string, wordID, slot int) (*AttemptResponse, error)
	ReturnWord(ctx context.Context, sessionID, questionID string, wordID int) (*AttemptResponse, error)
	Submit(ctx context.Context, sessionID, questionID string, req *SubmitRequest) (*AttemptResponse, error)

	Summary(ctx context.Context, sessionID string) (*SessionSummary, error)
}

// QuestionService manages the question source consumed by sessions.
type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest) (*QuestionResponse, error)
	GetByID(ctx context.Context, id string) (*QuestionResponse, error)
	GetByQuiz(ctx context.Context, quizID string) ([]*QuestionResponse, error)
	List(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error)
}

// ExportService renders a finished session's results as a spreadsheet.
type ExportService interface {
	ExportSessionResults(ctx context.Context, sessionID string) (*excelize.File, error)
}

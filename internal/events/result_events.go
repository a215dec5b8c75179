package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-edu/quiz-engine/internal/models"
)

// EventType represents the kinds of session events reported downstream
type EventType string

const (
	EventAnswerSubmitted  EventType = "session.answer_submitted"
	EventSessionStarted   EventType = "session.started"
	EventSessionCompleted EventType = "session.completed"
)

const eventSource = "quiz-engine"

// ResultEvent is the envelope for all reported session events
type ResultEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// AnswerSubmittedEvent carries one recorded answer: question, the user's
// type-appropriate answer, the local verdict and derived display text.
type AnswerSubmittedEvent struct {
	SessionID    string              `json:"session_id"`
	QuizID       string              `json:"quiz_id"`
	QuestionID   string              `json:"question_id"`
	QuestionType models.QuestionType `json:"question_type"`
	Answer       *models.AnswerValue `json:"answer"`
	AnswerText   string              `json:"answer_text,omitempty"`
	IsCorrect    bool                `json:"is_correct"`
	SubmittedAt  time.Time           `json:"submitted_at"`
}

// SessionStartedEvent marks a new quiz rendering.
type SessionStartedEvent struct {
	SessionID string    `json:"session_id"`
	QuizID    string    `json:"quiz_id"`
	Questions int       `json:"questions"`
	StartedAt time.Time `json:"started_at"`
}

// SessionCompletedEvent marks the last question reaching submitted state.
type SessionCompletedEvent struct {
	SessionID   string    `json:"session_id"`
	QuizID      string    `json:"quiz_id"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewResultEvent wraps a payload in the event envelope.
func NewResultEvent(eventType EventType, data interface{}) *ResultEvent {
	return &ResultEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

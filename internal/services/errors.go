package services

import (
	"errors"

	apperrors "github.com/brightpath-edu/quiz-engine/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Question specific errors
	ErrQuestionNotFound       = errors.New("question not found")
	ErrQuestionInvalidType    = errors.New("operation not supported for this question type")
	ErrQuestionInvalidContent = errors.New("invalid question payload for type")

	// Session specific errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrQuizHasNoQuestions = errors.New("quiz has no questions")
	ErrQuestionNotInQuiz  = errors.New("question does not belong to this session")

	// Submission specific errors
	ErrAnswerEmpty          = errors.New("candidate answer is empty")
	ErrSessionNotComplete   = errors.New("session is not complete")
	ErrExportNothingToWrite = errors.New("no submitted attempts to export")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

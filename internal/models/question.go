package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	ShortAnswer  QuestionType = "short_answer"
	Ordering     QuestionType = "ordering"
	FillBlank    QuestionType = "fill_blank"
)

// BlankDelimiter marks a blank position in a fill_blank sentence template.
// Blank slots are addressed by the 0-based position of the delimiter,
// left to right.
const BlankDelimiter = "*"

type Question struct {
	ID     string       `json:"id" gorm:"primaryKey;size:64"`
	QuizID string       `json:"quiz_id" gorm:"not null;index;size:64" validate:"required"`
	Type   QuestionType `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Prompt string       `json:"prompt" gorm:"type:text;not null" validate:"required"`
	Order  int          `json:"order" gorm:"default:0"`

	// Payload stored as JSONB; shape depends on Type.
	Payload datatypes.JSON `json:"payload" gorm:"type:jsonb" validate:"required"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ===== QUESTION PAYLOAD SCHEMAS =====

// SingleChoicePayload holds up to four options; CorrectOption is 1-based.
type SingleChoicePayload struct {
	Options       []string `json:"options" validate:"min=2,max=4"`
	CorrectOption int      `json:"correct_option"`
}

// MultiChoicePayload holds the option list and the set of correct 1-based
// indices. Selection order is irrelevant.
type MultiChoicePayload struct {
	Options        []string `json:"options" validate:"min=2,max=4"`
	CorrectOptions []int    `json:"correct_options"`
}

type ShortAnswerPayload struct {
	CorrectAnswer string `json:"correct_answer"`
}

type OrderingPayload struct {
	Items        []string `json:"items" validate:"min=2"`
	CorrectOrder []string `json:"correct_order"`
}

type BlankWord struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type BlankSolution struct {
	SlotIndex int `json:"slot_index"`
	WordID    int `json:"correct_word"`
}

// FillBlankPayload describes a drag-to-fill question: a sentence template
// whose blanks are marked by BlankDelimiter, a bank of candidate words and
// the per-slot solutions. Solutions need not cover every blank; a blank
// without a solution has no correct answer defined.
type FillBlankPayload struct {
	Sentence  string          `json:"sentence"`
	Words     []BlankWord     `json:"words"`
	Solutions []BlankSolution `json:"solutions"`
}

// BlankCount returns the number of blank slots in the sentence template.
func (p FillBlankPayload) BlankCount() int {
	return strings.Count(p.Sentence, BlankDelimiter)
}

// HasWord reports whether the word bank contains the given id.
func (p FillBlankPayload) HasWord(wordID int) bool {
	for _, w := range p.Words {
		if w.ID == wordID {
			return true
		}
	}
	return false
}

// DecodePayload unmarshals the JSONB payload into the typed schema for the
// question's type.
func (q *Question) DecodePayload() (interface{}, error) {
	raw := json.RawMessage(q.Payload)
	switch q.Type {
	case SingleChoice:
		var p SingleChoicePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode single_choice payload: %w", err)
		}
		return &p, nil
	case MultiChoice:
		var p MultiChoicePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode multi_choice payload: %w", err)
		}
		return &p, nil
	case ShortAnswer:
		var p ShortAnswerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode short_answer payload: %w", err)
		}
		return &p, nil
	case Ordering:
		var p OrderingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode ordering payload: %w", err)
		}
		return &p, nil
	case FillBlank:
		var p FillBlankPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode fill_blank payload: %w", err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unsupported question type: %s", q.Type)
	}
}

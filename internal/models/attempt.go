package models

import (
	"strings"
	"time"
)

type AttemptStatus string

const (
	AttemptUnanswered AttemptStatus = "unanswered"
	AttemptPending    AttemptStatus = "pending"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// AnswerValue is the per-type candidate answer. Exactly one field is
// relevant for a given question type; the rest stay empty.
type AnswerValue struct {
	Option    *int      `json:"option,omitempty"`    // single_choice, 1-based
	Options   []int     `json:"options,omitempty"`   // multi_choice, 1-based
	Text      *string   `json:"text,omitempty"`      // short_answer
	Order     []string  `json:"order,omitempty"`     // ordering
	Placement Placement `json:"placement,omitempty"` // fill_blank, slot -> word id
}

// IsEmpty reports whether the answer carries no usable input for the given
// question type. fill_blank is never empty in this sense: an unplaced
// attempt may still be submitted and graded.
func (a *AnswerValue) IsEmpty(qt QuestionType) bool {
	if a == nil {
		return true
	}
	switch qt {
	case SingleChoice:
		return a.Option == nil
	case MultiChoice:
		return len(a.Options) == 0
	case ShortAnswer:
		return a.Text == nil || strings.TrimSpace(*a.Text) == ""
	case Ordering:
		return len(a.Order) == 0
	case FillBlank:
		return false
	default:
		return true
	}
}

// Clone returns a deep copy so stored attempts cannot be mutated through
// caller-held slices or maps.
func (a *AnswerValue) Clone() *AnswerValue {
	if a == nil {
		return nil
	}
	c := &AnswerValue{}
	if a.Option != nil {
		v := *a.Option
		c.Option = &v
	}
	if a.Options != nil {
		c.Options = append([]int(nil), a.Options...)
	}
	if a.Text != nil {
		v := *a.Text
		c.Text = &v
	}
	if a.Order != nil {
		c.Order = append([]string(nil), a.Order...)
	}
	if a.Placement != nil {
		c.Placement = a.Placement.Clone()
	}
	return c
}

// Verdict is the evaluator's output: a correctness flag plus the
// type-specific reference value for rendering the correct answer.
type Verdict struct {
	Correct      bool        `json:"correct"`
	CorrectValue interface{} `json:"correct_value"`
}

// Attempt is the session-local record of a user's answer and verdict for
// one question. Once Status reaches AttemptSubmitted the attempt is
// immutable; duplicate submissions and late mutators are no-ops.
type Attempt struct {
	QuestionID    string        `json:"question_id"`
	Status        AttemptStatus `json:"status"`
	Answer        *AnswerValue  `json:"answer,omitempty"`
	Verdict       *Verdict      `json:"verdict,omitempty"`
	Misconfigured bool          `json:"misconfigured,omitempty"`
	AnsweredAt    *time.Time    `json:"answered_at,omitempty"`
	SubmittedAt   *time.Time    `json:"submitted_at,omitempty"`
}

func (a *Attempt) IsSubmitted() bool {
	return a.Status == AttemptSubmitted
}

// Snapshot returns a copy safe to hand to the presentation layer.
func (a *Attempt) Snapshot() *Attempt {
	c := *a
	c.Answer = a.Answer.Clone()
	if a.Verdict != nil {
		v := *a.Verdict
		c.Verdict = &v
	}
	return &c
}

package validator

import (
	"strings"

	apperrors "github.com/brightpath-edu/quiz-engine/internal/errors"
	"github.com/brightpath-edu/quiz-engine/internal/models"
)

// QuestionValidator checks that a question's payload is internally
// consistent for its type. A failing check marks the question as
// misconfigured; the evaluator still produces a verdict for it, but the
// presentation layer should prefer the configuration warning over a
// correctness badge.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateConfiguration returns every configuration issue found in the
// question's payload. An empty result means the question is well formed.
func (qv *QuestionValidator) ValidateConfiguration(q *models.Question) apperrors.ValidationErrors {
	payload, err := q.DecodePayload()
	if err != nil {
		return apperrors.ValidationErrors{
			*apperrors.NewValidationError("payload", "payload does not match question type", string(q.Type)),
		}
	}

	switch p := payload.(type) {
	case *models.SingleChoicePayload:
		return qv.validateSingleChoice(p)
	case *models.MultiChoicePayload:
		return qv.validateMultiChoice(p)
	case *models.ShortAnswerPayload:
		return qv.validateShortAnswer(p)
	case *models.OrderingPayload:
		return qv.validateOrdering(p)
	case *models.FillBlankPayload:
		return qv.validateFillBlank(p)
	}
	return nil
}

func (qv *QuestionValidator) validateSingleChoice(p *models.SingleChoicePayload) apperrors.ValidationErrors {
	var issues apperrors.ValidationErrors
	if len(p.Options) < 2 || len(p.Options) > 4 {
		issues = append(issues, *apperrors.NewValidationError("options", "must contain between 2 and 4 options", len(p.Options)))
	}
	if p.CorrectOption < 1 || p.CorrectOption > len(p.Options) {
		issues = append(issues, *apperrors.NewValidationError("correct_option", "must reference an existing option", p.CorrectOption))
	}
	return issues
}

func (qv *QuestionValidator) validateMultiChoice(p *models.MultiChoicePayload) apperrors.ValidationErrors {
	var issues apperrors.ValidationErrors
	if len(p.Options) < 2 || len(p.Options) > 4 {
		issues = append(issues, *apperrors.NewValidationError("options", "must contain between 2 and 4 options", len(p.Options)))
	}
	// Zero correct options would vacuously require an empty selection;
	// treated as a configuration error rather than assuming intent.
	if len(p.CorrectOptions) == 0 {
		issues = append(issues, *apperrors.NewValidationError("correct_options", "must define at least one correct option", nil))
	}
	seen := make(map[int]bool, len(p.CorrectOptions))
	for _, opt := range p.CorrectOptions {
		if opt < 1 || opt > len(p.Options) {
			issues = append(issues, *apperrors.NewValidationError("correct_options", "must reference existing options", opt))
		}
		if seen[opt] {
			issues = append(issues, *apperrors.NewValidationError("correct_options", "must not repeat an option", opt))
		}
		seen[opt] = true
	}
	return issues
}

func (qv *QuestionValidator) validateShortAnswer(p *models.ShortAnswerPayload) apperrors.ValidationErrors {
	if strings.TrimSpace(p.CorrectAnswer) == "" {
		return apperrors.ValidationErrors{
			*apperrors.NewValidationError("correct_answer", "must not be blank", p.CorrectAnswer),
		}
	}
	return nil
}

func (qv *QuestionValidator) validateOrdering(p *models.OrderingPayload) apperrors.ValidationErrors {
	var issues apperrors.ValidationErrors
	if len(p.Items) < 2 {
		issues = append(issues, *apperrors.NewValidationError("items", "must contain at least 2 items", len(p.Items)))
	}
	if len(p.CorrectOrder) != len(p.Items) {
		issues = append(issues, *apperrors.NewValidationError("correct_order", "must sequence every item exactly once", len(p.CorrectOrder)))
		return issues
	}
	remaining := make(map[string]int, len(p.Items))
	for _, item := range p.Items {
		remaining[item]++
	}
	for _, item := range p.CorrectOrder {
		if remaining[item] == 0 {
			issues = append(issues, *apperrors.NewValidationError("correct_order", "must sequence every item exactly once", item))
			return issues
		}
		remaining[item]--
	}
	return issues
}

func (qv *QuestionValidator) validateFillBlank(p *models.FillBlankPayload) apperrors.ValidationErrors {
	var issues apperrors.ValidationErrors
	blanks := p.BlankCount()

	seenSlots := make(map[int]bool, len(p.Solutions))
	for _, sol := range p.Solutions {
		if sol.SlotIndex < 0 || sol.SlotIndex >= blanks {
			issues = append(issues, *apperrors.NewValidationError("solutions", "slot_index must address an existing blank", sol.SlotIndex))
		}
		if seenSlots[sol.SlotIndex] {
			issues = append(issues, *apperrors.NewValidationError("solutions", "must define at most one solution per blank", sol.SlotIndex))
		}
		seenSlots[sol.SlotIndex] = true
		if !p.HasWord(sol.WordID) {
			issues = append(issues, *apperrors.NewValidationError("solutions", "correct_word must exist in the word bank", sol.WordID))
		}
	}
	if len(p.Solutions) > blanks {
		issues = append(issues, *apperrors.NewValidationError("solutions", "must not outnumber the blanks", len(p.Solutions)))
	}
	return issues
}

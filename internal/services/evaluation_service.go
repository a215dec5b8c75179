package services

import (
	"encoding/json"
	"log/slog"

	"github.com/brightpath-edu/quiz-engine/internal/models"
)

type evaluationService struct {
	logger *slog.Logger
}

func NewEvaluationService(logger *slog.Logger) EvaluationService {
	return &evaluationService{logger: logger}
}

// Evaluate computes the verdict for a candidate answer. It is deterministic
// and never returns an error: a nil answer, an answer of the wrong shape or
// an undecodable payload all yield an incorrect verdict, with the reference
// value still attached where the payload allowed decoding it.
func (s *evaluationService) Evaluate(question *models.Question, answer *models.AnswerValue) models.Verdict {
	raw := json.RawMessage(question.Payload)

	switch question.Type {
	case models.SingleChoice:
		return s.evaluateSingleChoice(raw, answer)
	case models.MultiChoice:
		return s.evaluateMultiChoice(raw, answer)
	case models.ShortAnswer:
		return s.evaluateShortAnswer(raw, answer)
	case models.Ordering:
		return s.evaluateOrdering(raw, answer)
	case models.FillBlank:
		return s.evaluateFillBlank(raw, answer)
	default:
		s.logger.Warn("Evaluating unsupported question type",
			"question_id", question.ID,
			"question_type", question.Type)
		return models.Verdict{Correct: false}
	}
}

func (s *evaluationService) evaluateSingleChoice(payload json.RawMessage, answer *models.AnswerValue) models.Verdict {
	var p models.SingleChoicePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("Failed to decode single_choice payload", "error", err)
		return models.Verdict{Correct: false}
	}

	verdict := models.Verdict{CorrectValue: p.CorrectOption}
	if answer == nil || answer.Option == nil {
		return verdict
	}
	verdict.Correct = *answer.Option == p.CorrectOption
	return verdict
}

func (s *evaluationService) evaluateMultiChoice(payload json.RawMessage, answer *models.AnswerValue) models.Verdict {
	var p models.MultiChoicePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("Failed to decode multi_choice payload", "error", err)
		return models.Verdict{Correct: false}
	}

	// Reference set sorted ascending for display.
	verdict := models.Verdict{CorrectValue: sortedInts(p.CorrectOptions)}
	if answer == nil || len(answer.Options) == 0 {
		return verdict
	}
	verdict.Correct = intSetsEqual(answer.Options, p.CorrectOptions)
	return verdict
}

func (s *evaluationService) evaluateShortAnswer(payload json.RawMessage, answer *models.AnswerValue) models.Verdict {
	var p models.ShortAnswerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("Failed to decode short_answer payload", "error", err)
		return models.Verdict{Correct: false}
	}

	verdict := models.Verdict{CorrectValue: p.CorrectAnswer}
	if answer == nil || answer.Text == nil {
		return verdict
	}
	verdict.Correct = textEqualFold(*answer.Text, p.CorrectAnswer)
	return verdict
}

func (s *evaluationService) evaluateOrdering(payload json.RawMessage, answer *models.AnswerValue) models.Verdict {
	var p models.OrderingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("Failed to decode ordering payload", "error", err)
		return models.Verdict{Correct: false}
	}

	verdict := models.Verdict{CorrectValue: p.CorrectOrder}
	if answer == nil || len(answer.Order) == 0 {
		return verdict
	}
	// No partial credit: the whole sequence matches or it does not.
	verdict.Correct = sequencesEqual(answer.Order, p.CorrectOrder)
	return verdict
}

// evaluateFillBlank checks every blank slot that has a defined solution:
// the placed word must match and no such slot may be left unfilled.
// Blanks without a solution are excluded from the check entirely. A
// question with no solutions at all is vacuously correct only when the
// user placed nothing - a misconfigured question never grades arbitrary
// placements as correct.
func (s *evaluationService) evaluateFillBlank(payload json.RawMessage, answer *models.AnswerValue) models.Verdict {
	var p models.FillBlankPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("Failed to decode fill_blank payload", "error", err)
		return models.Verdict{Correct: false}
	}

	verdict := models.Verdict{CorrectValue: p}

	var placement models.Placement
	if answer != nil {
		placement = answer.Placement
	}

	if len(p.Solutions) == 0 {
		verdict.Correct = len(placement) == 0
		return verdict
	}
	if len(placement) == 0 {
		return verdict
	}

	for _, sol := range p.Solutions {
		placed, ok := placement[sol.SlotIndex]
		if !ok || placed != sol.WordID {
			return verdict
		}
	}
	verdict.Correct = true
	return verdict
}

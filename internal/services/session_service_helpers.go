package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brightpath-edu/quiz-engine/internal/events"
	"github.com/brightpath-edu/quiz-engine/internal/models"
)

// ===== SESSION LOOKUP =====

func (s *sessionService) session(sessionID string) (*quizSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) sessionQuestion(sessionID, questionID string) (*quizSession, *models.Question, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	pos, ok := sess.index[questionID]
	if !ok {
		return nil, nil, ErrQuestionNotInQuiz
	}
	return sess, sess.questions[pos], nil
}

func (s *sessionService) move(sessionID string, delta int) (*SessionResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	next := sess.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > len(sess.questions)-1 {
		next = len(sess.questions) - 1
	}
	sess.cursor = next
	sess.ensureAttempt(sess.questions[next].ID)
	sess.mu.Unlock()

	return s.buildSessionResponse(sess), nil
}

// ===== SESSION STATE =====

// ensureAttempt lazily creates the unanswered attempt for a question the
// first time it comes into play. Callers hold sess.mu (or, during Start,
// have exclusive access).
func (sess *quizSession) ensureAttempt(questionID string) *models.Attempt {
	if attempt, ok := sess.attempts[questionID]; ok {
		return attempt
	}
	attempt := &models.Attempt{
		QuestionID:    questionID,
		Status:        models.AttemptUnanswered,
		Misconfigured: sess.misconfigured[questionID],
	}
	sess.attempts[questionID] = attempt
	return attempt
}

// isComplete reports whether every question carries a submitted attempt.
// Callers hold sess.mu.
func (sess *quizSession) isComplete() bool {
	for _, q := range sess.questions {
		attempt, ok := sess.attempts[q.ID]
		if !ok || !attempt.IsSubmitted() {
			return false
		}
	}
	return true
}

// correctCount counts submitted-and-correct attempts. Callers hold sess.mu.
func (sess *quizSession) correctCount() int {
	n := 0
	for _, attempt := range sess.attempts {
		if attempt.IsSubmitted() && attempt.Verdict != nil && attempt.Verdict.Correct {
			n++
		}
	}
	return n
}

// finalize records the candidate as the attempt's answer, evaluates it and
// moves the attempt to its terminal state. Callers hold sess.mu and have
// already checked the attempt is not submitted.
func (s *sessionService) finalize(sess *quizSession, question *models.Question, attempt *models.Attempt, candidate *models.AnswerValue) {
	now := time.Now()
	verdict := s.evaluator.Evaluate(question, candidate)

	attempt.Answer = candidate.Clone()
	attempt.Verdict = &verdict
	attempt.Status = models.AttemptSubmitted
	if attempt.AnsweredAt == nil {
		attempt.AnsweredAt = &now
	}
	attempt.SubmittedAt = &now

	s.logger.Info("Answer submitted",
		"session_id", sess.id,
		"question_id", question.ID,
		"question_type", question.Type,
		"correct", verdict.Correct)
}

func (s *sessionService) mutatePlacement(sessionID, questionID string, mutate func(*models.FillBlankPayload, models.Placement)) (*AttemptResponse, error) {
	sess, question, err := s.sessionQuestion(sessionID, questionID)
	if err != nil {
		return nil, err
	}
	if question.Type != models.FillBlank {
		return nil, ErrQuestionInvalidType
	}

	payload := &models.FillBlankPayload{}
	if err := json.Unmarshal(question.Payload, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionInvalidContent, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	attempt := sess.ensureAttempt(questionID)
	if attempt.IsSubmitted() {
		return s.buildAttemptResponse(question, attempt), nil
	}

	if attempt.Answer == nil || attempt.Answer.Placement == nil {
		attempt.Answer = &models.AnswerValue{Placement: models.Placement{}}
	}
	mutate(payload, attempt.Answer.Placement)

	if len(attempt.Answer.Placement) > 0 {
		attempt.Status = models.AttemptPending
		if attempt.AnsweredAt == nil {
			now := time.Now()
			attempt.AnsweredAt = &now
		}
	} else {
		attempt.Status = models.AttemptUnanswered
		attempt.AnsweredAt = nil
	}

	return s.buildAttemptResponse(question, attempt), nil
}

// answerProvided reports whether the candidate counts as "answered" for the
// pending/unanswered distinction. Unlike IsEmpty, a fill_blank attempt is
// answered only once at least one word is placed.
func answerProvided(qt models.QuestionType, answer *models.AnswerValue) bool {
	if answer == nil {
		return false
	}
	if qt == models.FillBlank {
		return len(answer.Placement) > 0
	}
	return !answer.IsEmpty(qt)
}

func optionInRange(question *models.Question, option int) bool {
	payload := &models.SingleChoicePayload{}
	if err := json.Unmarshal(question.Payload, payload); err != nil {
		return false
	}
	return option >= 1 && option <= len(payload.Options)
}

// ===== RESPONSE BUILDING =====

func (s *sessionService) buildSessionResponse(sess *quizSession) *SessionResponse {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return &SessionResponse{
		ID:        sess.id,
		QuizID:    sess.quizID,
		Cursor:    sess.cursor,
		Total:     len(sess.questions),
		Complete:  sess.isComplete(),
		StartedAt: sess.startedAt,
		Current:   s.buildQuestionView(sess, sess.cursor),
	}
}

// buildQuestionView strips the answer key from the question at pos. Callers
// hold sess.mu.
func (s *sessionService) buildQuestionView(sess *quizSession, pos int) *QuestionView {
	question := sess.questions[pos]
	view := &QuestionView{
		ID:      question.ID,
		Type:    question.Type,
		Prompt:  question.Prompt,
		IsFirst: pos == 0,
		IsLast:  pos == len(sess.questions)-1,
	}

	payload, err := question.DecodePayload()
	if err != nil {
		s.logger.Warn("Failed to decode question payload for display",
			"question_id", question.ID,
			"error", err)
		return view
	}

	switch p := payload.(type) {
	case *models.SingleChoicePayload:
		view.Options = p.Options
	case *models.MultiChoicePayload:
		view.Options = p.Options
	case *models.OrderingPayload:
		view.Items = p.Items
	case *models.FillBlankPayload:
		view.Sentence = p.Sentence
		view.Blanks = p.BlankCount()
		var placement models.Placement
		if attempt, ok := sess.attempts[question.ID]; ok && attempt.Answer != nil {
			placement = attempt.Answer.Placement
		}
		view.Bank = placement.Available(p.Words)
	}
	return view
}

// buildAttemptResponse snapshots the attempt. The verdict stays hidden until
// the attempt is submitted. Callers hold sess.mu.
func (s *sessionService) buildAttemptResponse(question *models.Question, attempt *models.Attempt) *AttemptResponse {
	snapshot := attempt.Snapshot()
	return &AttemptResponse{
		Attempt:   snapshot,
		CanSubmit: !snapshot.IsSubmitted() && answerProvided(question.Type, snapshot.Answer),
	}
}

// ===== RESULT REPORTING =====

// report publishes an event without blocking the caller. Reporting is
// fire-and-forget: a publish failure is logged and never rolls back the
// local state that produced it.
func (s *sessionService) report(event *events.ResultEvent) {
	go func() {
		// Detached from the request context: the report outlives the
		// request that produced it.
		if err := s.publisher.PublishResult(context.Background(), event); err != nil {
			s.logger.Error("Failed to publish session event",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err)
		}
	}()
}

func (s *sessionService) reportSubmission(sess *quizSession, question *models.Question, attempt *models.Attempt) {
	sess.mu.Lock()
	snapshot := attempt.Snapshot()
	sess.mu.Unlock()

	correct := snapshot.Verdict != nil && snapshot.Verdict.Correct
	submittedAt := time.Now()
	if snapshot.SubmittedAt != nil {
		submittedAt = *snapshot.SubmittedAt
	}

	s.report(events.NewResultEvent(events.EventAnswerSubmitted, &events.AnswerSubmittedEvent{
		SessionID:    sess.id,
		QuizID:       sess.quizID,
		QuestionID:   question.ID,
		QuestionType: question.Type,
		Answer:       snapshot.Answer,
		AnswerText:   answerDisplayText(question, snapshot.Answer),
		IsCorrect:    correct,
		SubmittedAt:  submittedAt,
	}))
}

func (s *sessionService) reportCompletion(sess *quizSession) {
	sess.mu.Lock()
	total := len(sess.questions)
	correct := sess.correctCount()
	sess.mu.Unlock()

	s.logger.Info("Quiz session completed",
		"session_id", sess.id,
		"quiz_id", sess.quizID,
		"correct", correct,
		"total", total)

	s.report(events.NewResultEvent(events.EventSessionCompleted, &events.SessionCompletedEvent{
		SessionID:   sess.id,
		QuizID:      sess.quizID,
		Total:       total,
		Correct:     correct,
		CompletedAt: time.Now(),
	}))
}

// answerDisplayText renders an answer as text for reports and exports.
func answerDisplayText(question *models.Question, answer *models.AnswerValue) string {
	if answer == nil {
		return ""
	}

	switch question.Type {
	case models.SingleChoice:
		if answer.Option == nil {
			return ""
		}
		payload := &models.SingleChoicePayload{}
		if err := json.Unmarshal(question.Payload, payload); err == nil {
			if idx := *answer.Option - 1; idx >= 0 && idx < len(payload.Options) {
				return payload.Options[idx]
			}
		}
		return strconv.Itoa(*answer.Option)

	case models.MultiChoice:
		payload := &models.MultiChoicePayload{}
		if err := json.Unmarshal(question.Payload, payload); err != nil {
			return ""
		}
		parts := make([]string, 0, len(answer.Options))
		for _, opt := range sortedInts(answer.Options) {
			if idx := opt - 1; idx >= 0 && idx < len(payload.Options) {
				parts = append(parts, payload.Options[idx])
			}
		}
		return strings.Join(parts, ", ")

	case models.ShortAnswer:
		if answer.Text == nil {
			return ""
		}
		return strings.TrimSpace(*answer.Text)

	case models.Ordering:
		return strings.Join(answer.Order, " -> ")

	case models.FillBlank:
		payload := &models.FillBlankPayload{}
		if err := json.Unmarshal(question.Payload, payload); err != nil {
			return ""
		}
		return renderSentence(payload, answer.Placement)
	}
	return ""
}

// renderSentence substitutes placed words into the sentence's blanks,
// leaving unfilled blanks as the delimiter.
func renderSentence(payload *models.FillBlankPayload, placement models.Placement) string {
	words := make(map[int]string, len(payload.Words))
	for _, w := range payload.Words {
		words[w.ID] = w.Text
	}

	var b strings.Builder
	slot := 0
	for _, r := range payload.Sentence {
		if string(r) == models.BlankDelimiter {
			if wordID, ok := placement[slot]; ok {
				b.WriteString(words[wordID])
			} else {
				b.WriteString(models.BlankDelimiter)
			}
			slot++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

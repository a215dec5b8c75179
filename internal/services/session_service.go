package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-edu/quiz-engine/internal/events"
	"github.com/brightpath-edu/quiz-engine/internal/models"
	"github.com/brightpath-edu/quiz-engine/internal/repositories"
	"github.com/brightpath-edu/quiz-engine/internal/validator"
)

// quizSession is the in-memory state of one quiz rendering: the ordered
// question list, a cursor and one attempt per question. Sessions are not
// persisted; a reload starts a fresh session.
type quizSession struct {
	id            string
	quizID        string
	questions     []*models.Question
	index         map[string]int // question id -> position
	attempts      map[string]*models.Attempt
	misconfigured map[string]bool
	cursor        int
	startedAt     time.Time

	// Serializes state transitions for this session. Attempts of different
	// sessions are independent.
	mu sync.Mutex
}

type sessionService struct {
	source    repositories.QuestionSource
	evaluator EvaluationService
	publisher events.ResultPublisher
	logger    *slog.Logger
	validator *validator.Validator

	mu       sync.RWMutex
	sessions map[string]*quizSession
}

func NewSessionService(
	source repositories.QuestionSource,
	evaluator EvaluationService,
	publisher events.ResultPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) SessionService {
	return &sessionService{
		source:    source,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
		validator: v,
		sessions:  make(map[string]*quizSession),
	}
}

// ===== SESSION LIFECYCLE =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest) (*SessionResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	questions, err := s.source.GetByQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quiz questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrQuizHasNoQuestions
	}

	sess := &quizSession{
		id:            uuid.NewString(),
		quizID:        req.QuizID,
		questions:     questions,
		index:         make(map[string]int, len(questions)),
		attempts:      make(map[string]*models.Attempt, len(questions)),
		misconfigured: make(map[string]bool, len(questions)),
		startedAt:     time.Now(),
	}
	for i, q := range questions {
		sess.index[q.ID] = i
		if issues := s.validator.Question().ValidateConfiguration(q); len(issues) > 0 {
			sess.misconfigured[q.ID] = true
			s.logger.Warn("Question is misconfigured",
				"quiz_id", req.QuizID,
				"question_id", q.ID,
				"issues", issues.Error())
		}
	}
	sess.ensureAttempt(questions[0].ID)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("Quiz session started",
		"session_id", sess.id,
		"quiz_id", req.QuizID,
		"questions", len(questions))

	s.report(events.NewResultEvent(events.EventSessionStarted, &events.SessionStartedEvent{
		SessionID: sess.id,
		QuizID:    sess.quizID,
		Questions: len(questions),
		StartedAt: sess.startedAt,
	}))

	return s.buildSessionResponse(sess), nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*SessionResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.buildSessionResponse(sess), nil
}

func (s *sessionService) CurrentQuestion(ctx context.Context, sessionID string) (*QuestionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.buildQuestionView(sess, sess.cursor), nil
}

// Advance moves the cursor forward by one, clamped to the last question.
// There is no wraparound in either direction.
func (s *sessionService) Advance(ctx context.Context, sessionID string) (*SessionResponse, error) {
	return s.move(sessionID, 1)
}

// Retreat moves the cursor back by one, clamped to the first question.
// Re-entering a question does not reset its attempt.
func (s *sessionService) Retreat(ctx context.Context, sessionID string) (*SessionResponse, error) {
	return s.move(sessionID, -1)
}

// ===== ATTEMPT OPERATIONS =====

func (s *sessionService) GetAttempt(ctx context.Context, sessionID, questionID string) (*AttemptResponse, error) {
	sess, question, err := s.sessionQuestion(sessionID, questionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	attempt := sess.ensureAttempt(questionID)
	return s.buildAttemptResponse(question, attempt), nil
}

// SaveAnswer records a candidate answer without confirming it, moving the
// attempt to pending. Used by the batch types; single_choice submits on
// selection instead.
func (s *sessionService) SaveAnswer(ctx context.Context, sessionID, questionID string, answer models.AnswerValue) (*AttemptResponse, error) {
	sess, question, err := s.sessionQuestion(sessionID, questionID)
	if err != nil {
		return nil, err
	}
	if question.Type == models.SingleChoice {
		return nil, ErrQuestionInvalidType
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	attempt := sess.ensureAttempt(questionID)
	if attempt.IsSubmitted() {
		// Stale UI event against a recorded verdict; keep it intact.
		return s.buildAttemptResponse(question, attempt), nil
	}

	candidate := answer.Clone()
	attempt.Answer = candidate
	if answerProvided(question.Type, candidate) {
		attempt.Status = models.AttemptPending
		now := time.Now()
		attempt.AnsweredAt = &now
	} else {
		attempt.Status = models.AttemptUnanswered
		attempt.AnsweredAt = nil
	}

	return s.buildAttemptResponse(question, attempt), nil
}

// SelectOption answers a single_choice question. Selection is itself the
// submit action: the verdict is computed and recorded immediately.
func (s *sessionService) SelectOption(ctx context.Context, sessionID, questionID string, option int) (*AttemptResponse, error) {
	sess, question, err := s.sessionQuestion(sessionID, questionID)
	if err != nil {
		return nil, err
	}
	if question.Type != models.SingleChoice {
		return nil, ErrQuestionInvalidType
	}

	sess.mu.Lock()

	attempt := sess.ensureAttempt(questionID)
	if attempt.IsSubmitted() {
		defer sess.mu.Unlock()
		return s.buildAttemptResponse(question, attempt), nil
	}

	if !optionInRange(question, option) {
		// Unknown option ids are stale UI artifacts, not failures.
		s.logger.Debug("Ignoring out-of-range option selection",
			"session_id", sess.id,
			"question_id", questionID,
			"option", option)
		defer sess.mu.Unlock()
		return s.buildAttemptResponse(question, attempt), nil
	}

	candidate := &models.AnswerValue{Option: &option}
	s.finalize(sess, question, attempt, candidate)
	resp := s.buildAttemptResponse(question, attempt)
	complete := sess.isComplete()
	sess.mu.Unlock()

	s.reportSubmission(sess, question, attempt)
	if complete {
		s.reportCompletion(sess)
	}
	return resp, nil
}

// PlaceWord assigns a bank word to a blank slot. Placing a word that
// already occupies another slot moves it; malformed ids are ignored.
func (s *sessionService) PlaceWord(ctx context.Context, sessionID, questionID string, wordID, slot int) (*AttemptResponse, error) {
	return s.mutatePlacement(sessionID, questionID, func(payload *models.FillBlankPayload, placement models.Placement) {
		if slot < 0 || slot >= payload.BlankCount() || !payload.HasWord(wordID) {
			s.logger.Debug("Ignoring malformed placement",
				"question_id", questionID,
				"word_id", wordID,
				"slot", slot)
			return
		}
		placement.Place(slot, wordID)
	})
}

// ReturnWord moves a placed word back to the bank.
func (s *sessionService) ReturnWord(ctx context.Context, sessionID, questionID string, wordID int) (*AttemptResponse, error) {
	return s.mutatePlacement(sessionID, questionID, func(payload *models.FillBlankPayload, placement models.Placement) {
		placement.Return(wordID)
	})
}

// Submit confirms the current candidate answer (or the one carried in the
// request), evaluates it exactly once and records the verdict. A second
// submit for the same question is a no-op returning the stored verdict.
func (s *sessionService) Submit(ctx context.Context, sessionID, questionID string, req *SubmitRequest) (*AttemptResponse, error) {
	sess, question, err := s.sessionQuestion(sessionID, questionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()

	attempt := sess.ensureAttempt(questionID)
	if attempt.IsSubmitted() {
		defer sess.mu.Unlock()
		return s.buildAttemptResponse(question, attempt), nil
	}

	candidate := attempt.Answer
	if req != nil && req.Answer != nil {
		candidate = req.Answer.Clone()
	}

	// Guard: batch types need a non-empty candidate. fill_blank is exempt;
	// submitting with required slots unfilled yields an incorrect verdict
	// rather than a validation error.
	if question.Type != models.FillBlank && candidate.IsEmpty(question.Type) {
		sess.mu.Unlock()
		return nil, ErrAnswerEmpty
	}
	if candidate == nil {
		candidate = &models.AnswerValue{Placement: models.Placement{}}
	}

	s.finalize(sess, question, attempt, candidate)
	resp := s.buildAttemptResponse(question, attempt)
	complete := sess.isComplete()
	sess.mu.Unlock()

	s.reportSubmission(sess, question, attempt)
	if complete {
		s.reportCompletion(sess)
	}
	return resp, nil
}

// ===== SUMMARY =====

func (s *sessionService) Summary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	summary := &SessionSummary{
		SessionID: sess.id,
		QuizID:    sess.quizID,
		Total:     len(sess.questions),
		StartedAt: sess.startedAt,
		Questions: make([]QuestionResult, 0, len(sess.questions)),
	}

	for _, q := range sess.questions {
		result := QuestionResult{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Type:       q.Type,
			Status:     models.AttemptUnanswered,
		}
		if attempt, ok := sess.attempts[q.ID]; ok {
			result.Status = attempt.Status
			result.AnswerText = answerDisplayText(q, attempt.Answer)
			if attempt.IsSubmitted() {
				summary.Answered++
				correct := attempt.Verdict != nil && attempt.Verdict.Correct
				result.Correct = &correct
				if correct {
					summary.Correct++
				}
			}
		}
		summary.Questions = append(summary.Questions, result)
	}
	summary.Complete = summary.Answered == summary.Total

	return summary, nil
}

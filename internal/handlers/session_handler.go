package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/quiz-engine/internal/services"
	"github.com/brightpath-edu/quiz-engine/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	exportService  services.ExportService
	validator      *validator.Validator
}

func NewSessionHandler(
	sessionService services.SessionService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		exportService:  exportService,
		validator:      validator,
	}
}

// StartSession creates a new session over a quiz's questions
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.StartSessionRequest true "Quiz to render"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting quiz session", "quiz_id", req.QuizID)

	session, err := h.sessionService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the session state including the current question view
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetCurrentQuestion returns the display view of the question under the cursor
// @Summary Current question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.QuestionView
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/current [get]
func (h *SessionHandler) GetCurrentQuestion(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.sessionService.CurrentQuestion(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Advance moves the cursor to the next question
// @Summary Advance cursor
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/advance [post]
func (h *SessionHandler) Advance(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	session, err := h.sessionService.Advance(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Retreat moves the cursor to the previous question
// @Summary Retreat cursor
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/retreat [post]
func (h *SessionHandler) Retreat(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	session, err := h.sessionService.Retreat(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetAttempt returns the attempt state for one question
// @Summary Get attempt
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/questions/{question_id}/attempt [get]
func (h *SessionHandler) GetAttempt(c *gin.Context) {
	sessionID, questionID := h.attemptParams(c)
	if sessionID == "" || questionID == "" {
		return
	}

	attempt, err := h.sessionService.GetAttempt(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SaveAnswer records a candidate answer without submitting it
// @Summary Save answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Param answer body services.SaveAnswerRequest true "Candidate answer"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/questions/{question_id}/answer [put]
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	sessionID, questionID := h.attemptParams(c)
	if sessionID == "" || questionID == "" {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	attempt, err := h.sessionService.SaveAnswer(c.Request.Context(), sessionID, questionID, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SelectOption answers and submits a single-choice question in one step
// @Summary Select option
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Param selection body services.SelectOptionRequest true "1-based option"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/questions/{question_id}/select [post]
func (h *SessionHandler) SelectOption(c *gin.Context) {
	sessionID, questionID := h.attemptParams(c)
	if sessionID == "" || questionID == "" {
		return
	}

	var req services.SelectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	attempt, err := h.sessionService.SelectOption(c.Request.Context(), sessionID, questionID, req.Option)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// PlaceWord assigns a bank word to a blank slot
// @Summary Place word
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Param placement body services.PlaceWordRequest true "Word and slot"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/questions/{question_id}/placements [post]
func (h *SessionHandler) PlaceWord(c *gin.Context) {
	sessionID, questionID := h.attemptParams(c)
	if sessionID == "" || questionID == "" {
		return
	}

	var req services.PlaceWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	attempt, err := h.sessionService.PlaceWord(c.Request.Context(), sessionID, questionID, req.WordID, req.Slot)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ReturnWord moves a placed word back to the bank
// @Summary Return word
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Param word_id path int true "Word ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/questions/{question_id}/placements/{word_id} [delete]
func (h *SessionHandler) ReturnWord(c *gin.Context) {
	sessionID, questionID := h.attemptParams(c)
	if sessionID == "" || questionID == "" {
		return
	}

	var wordID int
	if _, err := fmt.Sscanf(c.Param("word_id"), "%d", &wordID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid word_id",
			Details: "Must be an integer",
		})
		return
	}

	attempt, err := h.sessionService.ReturnWord(c.Request.Context(), sessionID, questionID, wordID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// Submit confirms the answer and records the verdict
// @Summary Submit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Param submission body services.SubmitRequest false "Optional answer override"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/questions/{question_id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	sessionID, questionID := h.attemptParams(c)
	if sessionID == "" || questionID == "" {
		return
	}

	// The body is optional: an empty body submits the saved candidate.
	req := &services.SubmitRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	attempt, err := h.sessionService.Submit(c.Request.Context(), sessionID, questionID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetSummary returns per-question results and score counts
// @Summary Session summary
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionSummary
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/summary [get]
func (h *SessionHandler) GetSummary(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	summary, err := h.sessionService.Summary(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportResults streams the completed session's results as an xlsx file
// @Summary Export results
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) ExportResults(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Exporting session results", "session_id", id)

	file, err := h.exportService.ExportSessionResults(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=session-%s-results.xlsx", id))
	if err := file.Write(c.Writer); err != nil {
		h.LogError(c, err, "Failed to stream export")
	}
}

func (h *SessionHandler) attemptParams(c *gin.Context) (string, string) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return "", ""
	}
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return "", ""
	}
	return sessionID, questionID
}

package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/quiz-engine/internal/services"
	"github.com/brightpath-edu/quiz-engine/internal/validator"
)

type HandlerManager struct {
	sessionHandler  *SessionHandler
	questionHandler *QuestionHandler
}

func NewHandlerManager(
	sessionService services.SessionService,
	questionService services.QuestionService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:  NewSessionHandler(sessionService, exportService, validator, logger),
		questionHandler: NewQuestionHandler(questionService, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-engine",
		})
	})

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.GET("/:id/current", hm.sessionHandler.GetCurrentQuestion)
			sessions.POST("/:id/advance", hm.sessionHandler.Advance)
			sessions.POST("/:id/retreat", hm.sessionHandler.Retreat)
			sessions.GET("/:id/summary", hm.sessionHandler.GetSummary)
			sessions.GET("/:id/export", hm.sessionHandler.ExportResults)

			// Per-question attempt lifecycle
			sessions.GET("/:id/questions/:question_id/attempt", hm.sessionHandler.GetAttempt)
			sessions.PUT("/:id/questions/:question_id/answer", hm.sessionHandler.SaveAnswer)
			sessions.POST("/:id/questions/:question_id/select", hm.sessionHandler.SelectOption)
			sessions.POST("/:id/questions/:question_id/placements", hm.sessionHandler.PlaceWord)
			sessions.DELETE("/:id/questions/:question_id/placements/:word_id", hm.sessionHandler.ReturnWord)
			sessions.POST("/:id/questions/:question_id/submit", hm.sessionHandler.Submit)
		}

		questions := v1.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
		}

		v1.GET("/quizzes/:quiz_id/questions", hm.questionHandler.GetQuizQuestions)
	}
}

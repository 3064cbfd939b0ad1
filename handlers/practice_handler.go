package handlers

import (
	"net/http"
	"strconv"

	"geoquiz/models"
	"geoquiz/services"

	"github.com/gin-gonic/gin"
)

type PracticeHandler struct {
	practiceService *services.PracticeService
}

func NewPracticeHandler(practiceService *services.PracticeService) *PracticeHandler {
	return &PracticeHandler{
		practiceService: practiceService,
	}
}

type CheckAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
}

func (h *PracticeHandler) RandomQuestion(c *gin.Context) {
	var filter services.QuestionFilter

	if raw := c.Query("type"); raw != "" {
		t := models.QuestionType(raw)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown question type", "reason": services.ReasonInvalidArgument})
			return
		}
		filter.Type = &t
	}
	if raw := c.Query("difficulty"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 1 || d > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Difficulty must be between 1 and 5", "reason": services.ReasonInvalidArgument})
			return
		}
		filter.Difficulty = &d
	}
	if raw := c.Query("continent"); raw != "" {
		continent, ok := models.ParseContinent(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown continent", "reason": services.ReasonInvalidArgument})
			return
		}
		filter.Continent = &continent
	}

	question, err := h.practiceService.GetRandomQuestion(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *PracticeHandler) CheckAnswer(c *gin.Context) {
	var req CheckAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": services.ReasonInvalidArgument})
		return
	}

	result, err := h.practiceService.CheckAnswer(c.Request.Context(), req.QuestionID, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InterviewHandler struct {
	log       *zap.Logger
	interview Interviewer
}

func NewInterviewHandler(log *zap.Logger, interview Interviewer) *InterviewHandler {
	return &InterviewHandler{log: log, interview: interview}
}

type questionRequest struct {
	Domain string `json:"domain"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (h *InterviewHandler) GenerateQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Domain) == "" {
		respondError(c, http.StatusBadRequest, "Domain is required")
		return
	}

	q, err := h.interview.NextQuestion(c.Request.Context(), currentUser(c), req.Domain)
	if err != nil {
		h.log.Error("Failed to generate question", zap.String("username", currentUser(c)), zap.Error(err))
		respondError(c, statusFor(err), "Failed to generate question")
		return
	}

	c.JSON(http.StatusOK, q)
}

func (h *InterviewHandler) AddAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Answer) == "" {
		respondError(c, http.StatusBadRequest, "Answer is required")
		return
	}

	if err := h.interview.AddAnswer(c.Request.Context(), currentUser(c), req.Answer); err != nil {
		respondError(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"mes": "Added the answer to the database"})
}

func (h *InterviewHandler) Reset(c *gin.Context) {
	if err := h.interview.Reset(c.Request.Context(), currentUser(c)); err != nil {
		h.log.Error("Failed to reset interview", zap.String("username", currentUser(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to reset interview")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "true"})
}

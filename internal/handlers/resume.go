package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ResumeHandler struct {
	log    *zap.Logger
	resume ResumeChecker
}

func NewResumeHandler(log *zap.Logger, resume ResumeChecker) *ResumeHandler {
	return &ResumeHandler{log: log, resume: resume}
}

type resumeRequest struct {
	Resume  string `json:"resume"`
	Profile string `json:"profile"`
}

func (h *ResumeHandler) CheckResume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Resume) == "" || strings.TrimSpace(req.Profile) == "" {
		respondError(c, http.StatusBadRequest, "Resume and profile are required")
		return
	}

	review, err := h.resume.Check(c.Request.Context(), req.Resume, req.Profile)
	if err != nil {
		respondError(c, statusFor(err), "Failed to check resume")
		return
	}
	c.JSON(http.StatusOK, review)
}

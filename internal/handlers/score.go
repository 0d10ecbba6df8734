package handlers

import (
	"net/http"

	"interview-coach/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ScoreHandler struct {
	log    *zap.Logger
	scorer Scorer
}

func NewScoreHandler(log *zap.Logger, scorer Scorer) *ScoreHandler {
	return &ScoreHandler{log: log, scorer: scorer}
}

func (h *ScoreHandler) CalculateScore(c *gin.Context) {
	feedback, err := h.scorer.Score(c.Request.Context(), currentUser(c))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("Failed to score interview", zap.String("username", currentUser(c)), zap.Error(err))
			respondError(c, status, "Failed to score interview")
			return
		}
		respondError(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// CheckScore returns the last five scores with a progress suggestion, plus chart options
// for the full score history.
func (h *ScoreHandler) CheckScore(c *gin.Context) {
	ctx := c.Request.Context()
	username := currentUser(c)

	history, err := h.scorer.History(ctx, username)
	if err != nil {
		h.log.Error("Failed to load score history", zap.String("username", username), zap.Error(err))
		respondError(c, statusFor(err), "Failed to load score history")
		return
	}

	resp := gin.H{
		"validUser":  true,
		"array":      history.Scores,
		"suggestion": history.Suggestion,
	}

	scores, finals, err := h.scorer.Timeline(ctx, username)
	if err != nil {
		h.log.Warn("Failed to load score timeline", zap.String("username", username), zap.Error(err))
	} else {
		resp["chart"] = services.ScoreTimelineChart(scores, finals).JSON()
	}

	c.JSON(http.StatusOK, resp)
}

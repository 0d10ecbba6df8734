package handlers

import (
	"errors"
	"net/http"
	"strings"

	"interview-coach/internal/repository"
	"interview-coach/internal/services"
	"interview-coach/internal/transcription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	log         *zap.Logger
	images      services.ProfileStore
	transcriber transcription.Transcriber
}

func NewProfileHandler(log *zap.Logger, images services.ProfileStore, transcriber transcription.Transcriber) *ProfileHandler {
	return &ProfileHandler{log: log, images: images, transcriber: transcriber}
}

type imageRequest struct {
	Image string `json:"image"`
}

func (h *ProfileHandler) GetImage(c *gin.Context) {
	img, err := h.images.GetProfileImage(c.Request.Context(), currentUser(c))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"image": nil})
		return
	}
	if err != nil {
		h.log.Error("Failed to load profile image", zap.String("username", currentUser(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load profile image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": img.Image})
}

func (h *ProfileHandler) AddImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Image) == "" {
		respondError(c, http.StatusBadRequest, "Image is required")
		return
	}

	created, err := h.images.UpsertProfileImage(c.Request.Context(), currentUser(c), req.Image)
	if err != nil {
		h.log.Error("Failed to save profile image", zap.String("username", currentUser(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to save profile image")
		return
	}

	if created {
		c.JSON(http.StatusOK, gin.H{"message": "Image added"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image updated"})
}

func (h *ProfileHandler) Transcribe(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No audio file provided")
		return
	}
	if file.Size == 0 {
		respondError(c, http.StatusBadRequest, "Audio file is empty")
		return
	}

	audio, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Unreadable audio file")
		return
	}
	defer audio.Close()

	text, err := h.transcriber.Transcribe(c.Request.Context(), audio)
	if errors.Is(err, transcription.ErrEmptyAudio) {
		respondError(c, http.StatusBadRequest, "Audio file is empty")
		return
	}
	if err != nil {
		h.log.Error("Failed to transcribe audio", zap.String("username", currentUser(c)), zap.Int64("bytes", file.Size), zap.Error(err))
		respondError(c, http.StatusBadGateway, "Failed to transcribe audio")
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"interview-coach/internal/models"
	"interview-coach/internal/services"
	"interview-coach/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 5 * time.Second
	streamMaxMessage   = 256 << 10

	// maxPostedSamples bounds each buffer accepted by PostMetrics.
	maxPostedSamples = 5000

	errTrackingStopped = "tracking stopped: a newer session replaced this one or it went idle"
)

type BehaviourHandler struct {
	log      *zap.Logger
	tracker  BehaviourTracker
	analyzer Analyzer
	upgrader websocket.Upgrader
}

// NewBehaviourHandler creates the behaviour endpoints. When allowedOrigin is empty the
// stream accepts connections from any origin.
func NewBehaviourHandler(log *zap.Logger, tracker BehaviourTracker, analyzer Analyzer, allowedOrigin string) *BehaviourHandler {
	return &BehaviourHandler{
		log:      log,
		tracker:  tracker,
		analyzer: analyzer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Stream attaches a behaviour sampler to a WebSocket fed by the browser's gaze and pose
// models. The client opens with a start message, streams observations, and ends with
// finish, which is answered with the final metrics. A dropped connection also finishes
// the session.
func (h *BehaviourHandler) Stream(c *gin.Context) {
	username := currentUser(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Behaviour stream upgrade failed", zap.String("username", username), zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(streamMaxMessage)
	conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	})

	start, err := readMessage(conn)
	if err != nil || start.Type != tracking.MessageStart {
		h.writeMessage(conn, tracking.Message{Type: tracking.MessageError, Error: "expected start message"})
		return
	}

	ctx := c.Request.Context()
	stream, sampler, err := h.tracker.Begin(ctx, username, start.Viewport)
	if err != nil {
		h.log.Error("Failed to start behaviour tracking", zap.String("username", username), zap.Error(err))
		h.writeMessage(conn, tracking.Message{Type: tracking.MessageError, Error: "failed to start tracking"})
		return
	}
	h.log.Info("Behaviour stream started", zap.String("username", username), zap.String("stream", stream.ID()))

	finished := false
	defer func() {
		if !finished {
			m := h.tracker.Finish(context.Background(), username, sampler)
			h.log.Info("Behaviour stream dropped", zap.String("username", username), zap.Float64("duration", m.Duration))
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	for {
		msg, err := readMessage(conn)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				h.writeMessage(conn, tracking.Message{Type: tracking.MessageError, Error: "invalid message"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Behaviour stream closed unexpectedly", zap.String("username", username), zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))

		// Stopped by a newer stream for the same user or by the idle sweeper.
		if !sampler.IsTracking() {
			h.writeMessage(conn, tracking.Message{Type: tracking.MessageError, Error: errTrackingStopped})
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "tracking stopped"),
				time.Now().Add(streamWriteTimeout))
			h.log.Info("Behaviour stream closed after tracking stopped", zap.String("username", username),
				zap.String("stream", stream.ID()))
			return
		}

		if stream.Dispatch(msg) {
			continue
		}

		switch msg.Type {
		case tracking.MessageMetrics:
			m := sampler.BehaviourData()
			h.writeMessage(conn, tracking.Message{Type: tracking.MessageMetrics, Metrics: &m})
		case tracking.MessageFinish:
			m := h.tracker.Finish(ctx, username, sampler)
			finished = true
			h.writeMessage(conn, tracking.Message{Type: tracking.MessageMetrics, Metrics: &m})
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finished"),
				time.Now().Add(streamWriteTimeout))
			h.log.Info("Behaviour stream finished", zap.String("username", username),
				zap.Float64("behaviour_score", m.BehaviourScore), zap.Float64("duration", m.Duration))
			return
		case tracking.MessageStart:
			h.writeMessage(conn, tracking.Message{Type: tracking.MessageError, Error: "tracking already started"})
		default:
			h.writeMessage(conn, tracking.Message{Type: tracking.MessageError, Error: "unknown message type"})
		}
	}
}

func readMessage(conn *websocket.Conn) (tracking.Message, error) {
	var msg tracking.Message
	_, data, err := conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	err = json.Unmarshal(data, &msg)
	return msg, err
}

func (h *BehaviourHandler) writeMessage(conn *websocket.Conn, msg tracking.Message) {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug("Behaviour stream write failed", zap.Error(err))
	}
}

// pingLoop keeps the connection alive until done is closed. WriteControl may run
// concurrently with the handler's writes.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

type metricsRequest struct {
	Gaze     []models.GazeSample `json:"gaze"`
	Poses    []models.PoseSample `json:"poses"`
	Duration float64             `json:"duration"`
	Viewport *models.Viewport    `json:"viewport"`
}

// PostMetrics aggregates buffers sampled on the client.
func (h *BehaviourHandler) PostMetrics(c *gin.Context) {
	var req metricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind behaviour samples", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid data")
		return
	}
	if len(req.Gaze) > maxPostedSamples || len(req.Poses) > maxPostedSamples || req.Duration < 0 {
		respondError(c, http.StatusBadRequest, "Invalid data")
		return
	}

	duration := time.Duration(req.Duration * float64(time.Second))
	m := h.tracker.Aggregate(c.Request.Context(), currentUser(c), req.Gaze, req.Poses, duration, req.Viewport)
	c.JSON(http.StatusOK, gin.H{"success": true, "metrics": m})
}

type finalAnalysisRequest struct {
	InterviewScore   *float64                 `json:"interviewScore"`
	BehaviourMetrics *models.BehaviourMetrics `json:"behaviourMetrics"`
}

func (h *BehaviourHandler) FinalAnalysis(c *gin.Context) {
	var req finalAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InterviewScore == nil {
		respondError(c, http.StatusBadRequest, "Invalid interviewScore. Must be a number between 0 and 10.")
		return
	}

	result, err := h.analyzer.FinalAnalysis(c.Request.Context(), currentUser(c), *req.InterviewScore, req.BehaviourMetrics)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidScore):
			respondError(c, http.StatusBadRequest, "Invalid interviewScore. Must be a number between 0 and 10.")
		case errors.Is(err, services.ErrInvalidMetrics):
			respondError(c, http.StatusBadRequest, "Invalid behaviourMetrics. Scores must be between 0 and 10 and percentages between 0 and 100.")
		case errors.Is(err, services.ErrNoBehaviourData):
			respondError(c, http.StatusBadRequest, "No behaviourMetrics provided and no recorded session found.")
		default:
			h.log.Error("Final analysis failed", zap.String("username", currentUser(c)), zap.Error(err))
			respondError(c, statusFor(err), "Failed to generate behaviour analysis. Please try again.")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// LatestAnalysis returns the user's most recent saved final analysis.
func (h *BehaviourHandler) LatestAnalysis(c *gin.Context) {
	analysis, err := h.analyzer.LatestAnalysis(c.Request.Context(), currentUser(c))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			respondError(c, status, "No final analysis found.")
			return
		}
		h.log.Error("Failed to load final analysis", zap.String("username", currentUser(c)), zap.Error(err))
		respondError(c, status, "Failed to load final analysis")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interview-coach/internal/cache"
	"interview-coach/internal/generation"
	"interview-coach/internal/models"
	"interview-coach/internal/repository"
	"interview-coach/internal/services"
	"interview-coach/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withUser mounts h behind a stub auth step that sets the username.
func withUser(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		c.Set(UsernameContextKey, "alice")
		c.Next()
	}, h)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

type fakeAuth struct {
	signupErr error
	token     string
	signinErr error
}

func (f fakeAuth) Signup(context.Context, string, string) error { return f.signupErr }

func (f fakeAuth) Signin(context.Context, string, string) (string, error) {
	return f.token, f.signinErr
}

func TestAuthHandler_Signup(t *testing.T) {
	r := gin.New()
	r.POST("/signup", NewAuthHandler(zap.NewNop(), fakeAuth{}).Signup)

	w, body := doJSON(t, r, http.MethodPost, "/signup", `{"username":"alice","password":"Str0ng!pass"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["mes"])

	w, body = doJSON(t, r, http.MethodPost, "/signup", `{"username":"alice","password":"weak"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = doJSON(t, r, http.MethodPost, "/signup", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = gin.New()
	r.POST("/signup", NewAuthHandler(zap.NewNop(), fakeAuth{signupErr: repository.ErrUserExists}).Signup)
	w, body = doJSON(t, r, http.MethodPost, "/signup", `{"username":"alice","password":"Str0ng!pass"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User already exists", body["error"])
}

func TestAuthHandler_SigninAcceptsHeaders(t *testing.T) {
	r := gin.New()
	r.POST("/signin", NewAuthHandler(zap.NewNop(), fakeAuth{token: "tok"}).Signin)

	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	req.Header.Set("username", "alice")
	req.Header.Set("password", "Str0ng!pass")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mes":"true","jwttoken":"tok"}`, w.Body.String())
}

func TestAuthHandler_SigninRejectsBadCredentials(t *testing.T) {
	r := gin.New()
	r.POST("/signin", NewAuthHandler(zap.NewNop(), fakeAuth{signinErr: services.ErrInvalidCredentials}).Signin)

	w, _ := doJSON(t, r, http.MethodPost, "/signin", `{"username":"alice","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type fakeInterviewer struct {
	answerErr error
	genErr    error
}

func (f fakeInterviewer) NextQuestion(_ context.Context, _, domain string) (*services.Question, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &services.Question{Number: 1, Text: "Why " + domain + "?"}, nil
}

func (f fakeInterviewer) AddAnswer(context.Context, string, string) error { return f.answerErr }
func (f fakeInterviewer) Reset(context.Context, string) error             { return nil }

func TestInterviewHandler(t *testing.T) {
	h := NewInterviewHandler(zap.NewNop(), fakeInterviewer{answerErr: services.ErrNoQuestion})

	r := withUser(http.MethodPost, "/interview", h.GenerateQuestion)
	w, body := doJSON(t, r, http.MethodPost, "/interview", `{"domain":"Go"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["qno"])
	assert.Equal(t, "Why Go?", body["question"])

	w, _ = doJSON(t, r, http.MethodPost, "/interview", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = withUser(http.MethodPost, "/addanswer", h.AddAnswer)
	w, body = doJSON(t, r, http.MethodPost, "/addanswer", `{"answer":"Because."}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.ErrNoQuestion.Error(), body["error"])

	r = withUser(http.MethodPost, "/home", h.Reset)
	w, body = doJSON(t, r, http.MethodPost, "/home", ``)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", body["message"])
}

func TestInterviewHandler_ModelExhaustion(t *testing.T) {
	err := fmt.Errorf("%w after 3 rounds", generation.ErrAllModelsFailed)
	h := NewInterviewHandler(zap.NewNop(), fakeInterviewer{genErr: err})
	r := withUser(http.MethodPost, "/interview", h.GenerateQuestion)

	w, _ := doJSON(t, r, http.MethodPost, "/interview", `{"domain":"Go"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type fakeScorer struct {
	scoreErr error
}

func (f fakeScorer) Score(context.Context, string) (map[string]any, error) {
	if f.scoreErr != nil {
		return nil, f.scoreErr
	}
	return map[string]any{"overall_score": "7/10"}, nil
}

func (fakeScorer) History(context.Context, string) (*services.ScoreHistory, error) {
	return &services.ScoreHistory{Scores: []int{6, 7}, Suggestion: "Not enough scores to analyze."}, nil
}

func (fakeScorer) Timeline(context.Context, string) ([]repository.TimelineDataPoint, []repository.TimelineDataPoint, error) {
	return []repository.TimelineDataPoint{{Date: time.Now(), Value: 6}, {Date: time.Now(), Value: 7}}, nil, nil
}

func TestScoreHandler(t *testing.T) {
	h := NewScoreHandler(zap.NewNop(), fakeScorer{})

	r := withUser(http.MethodPost, "/score", h.CalculateScore)
	w, body := doJSON(t, r, http.MethodPost, "/score", ``)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7/10", body["overall_score"])

	r = withUser(http.MethodPost, "/checkscore", h.CheckScore)
	w, body = doJSON(t, r, http.MethodPost, "/checkscore", ``)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["validUser"])
	assert.Equal(t, []any{float64(6), float64(7)}, body["array"])
	assert.Contains(t, body, "chart")

	h = NewScoreHandler(zap.NewNop(), fakeScorer{scoreErr: services.ErrNoTranscript})
	r = withUser(http.MethodPost, "/score", h.CalculateScore)
	w, _ = doJSON(t, r, http.MethodPost, "/score", ``)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type fakeResume struct{}

func (fakeResume) Check(context.Context, string, string) (*services.ResumeReview, error) {
	return &services.ResumeReview{Score: "8", GoodPoints: "good", ImprovementPoints: "more"}, nil
}

func TestResumeHandler(t *testing.T) {
	r := withUser(http.MethodPost, "/resume", NewResumeHandler(zap.NewNop(), fakeResume{}).CheckResume)

	w, body := doJSON(t, r, http.MethodPost, "/resume", `{"resume":"cv","profile":"SRE"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good", body["goodPoints"])

	w, _ = doJSON(t, r, http.MethodPost, "/resume", `{"resume":"cv"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeImages struct {
	image string
}

func (f *fakeImages) GetProfileImage(_ context.Context, username string) (*models.ProfileImage, error) {
	if f.image == "" {
		return nil, repository.ErrNotFound
	}
	return &models.ProfileImage{Username: username, Image: f.image}, nil
}

func (f *fakeImages) UpsertProfileImage(_ context.Context, _, image string) (bool, error) {
	created := f.image == ""
	f.image = image
	return created, nil
}

type fakeTranscriber struct {
	calls *int
}

func (f fakeTranscriber) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	if f.calls != nil {
		*f.calls++
	}
	data, _ := io.ReadAll(audio)
	return "heard " + string(data), nil
}

func audioUpload(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "answer.webm")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProfileHandler_Images(t *testing.T) {
	h := NewProfileHandler(zap.NewNop(), &fakeImages{}, fakeTranscriber{})
	get := withUser(http.MethodPost, "/getimage", h.GetImage)
	add := withUser(http.MethodPost, "/addimage", h.AddImage)

	_, body := doJSON(t, get, http.MethodPost, "/getimage", ``)
	assert.Nil(t, body["image"])

	_, body = doJSON(t, add, http.MethodPost, "/addimage", `{"image":"data:image/png;base64,AAA"}`)
	assert.Equal(t, "Image added", body["message"])
	_, body = doJSON(t, add, http.MethodPost, "/addimage", `{"image":"data:image/png;base64,BBB"}`)
	assert.Equal(t, "Image updated", body["message"])

	_, body = doJSON(t, get, http.MethodPost, "/getimage", ``)
	assert.Equal(t, "data:image/png;base64,BBB", body["image"])
}

func TestProfileHandler_Transcribe(t *testing.T) {
	r := withUser(http.MethodPost, "/transcribe", NewProfileHandler(zap.NewNop(), &fakeImages{}, fakeTranscriber{}).Transcribe)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, audioUpload(t, []byte("hello")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"heard hello"}`, w.Body.String())

	w, _ = doJSON(t, r, http.MethodPost, "/transcribe", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileHandler_TranscribeEmptyUpload(t *testing.T) {
	var calls int
	r := withUser(http.MethodPost, "/transcribe",
		NewProfileHandler(zap.NewNop(), &fakeImages{}, fakeTranscriber{calls: &calls}).Transcribe)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, audioUpload(t, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Audio file is empty"}`, w.Body.String())
	assert.Zero(t, calls)
}

type fakeAnalyzer struct {
	got *models.BehaviourMetrics
}

func (f *fakeAnalyzer) FinalAnalysis(_ context.Context, _ string, score float64, bm *models.BehaviourMetrics) (*services.FinalAnalysisResult, error) {
	if score < 0 || score > 10 {
		return nil, services.ErrInvalidScore
	}
	if bm == nil {
		return nil, services.ErrNoBehaviourData
	}
	if bm.BehaviourScore > 10 {
		return nil, fmt.Errorf("%w: behaviourScore must be between 0 and 10", services.ErrInvalidMetrics)
	}
	f.got = bm
	return &services.FinalAnalysisResult{Success: true, InterviewScore: score, FinalScore: 7.9}, nil
}

func (f *fakeAnalyzer) LatestAnalysis(context.Context, string) (*services.StoredAnalysis, error) {
	if f.got == nil {
		return nil, repository.ErrNotFound
	}
	return &services.StoredAnalysis{FinalScore: 7.9, Tips: []string{}, BehaviourFeedback: []string{}}, nil
}

func TestBehaviourHandler_LatestAnalysis(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	h := NewBehaviourHandler(zap.NewNop(), newBehaviourService(), analyzer, "")
	r := withUser(http.MethodGet, "/final-analysis/latest", h.LatestAnalysis)

	w, body := doJSON(t, r, http.MethodGet, "/final-analysis/latest", ``)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	analyzer.got = &models.BehaviourMetrics{}
	w, body = doJSON(t, r, http.MethodGet, "/final-analysis/latest", ``)
	require.Equal(t, http.StatusOK, w.Code)
	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 7.9, analysis["finalScore"])
}

func newBehaviourService() *services.BehaviourService {
	return services.NewBehaviourService(zap.NewNop(), tracking.NewRegistry(), cache.Noop{}, time.Hour, tracking.Options{
		Interval: 2 * time.Millisecond,
		Window:   time.Second,
		Viewport: models.Viewport{Width: 1280, Height: 720},
	})
}

func TestBehaviourHandler_FinalAnalysis(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	h := NewBehaviourHandler(zap.NewNop(), newBehaviourService(), analyzer, "")
	r := withUser(http.MethodPost, "/final-analysis", h.FinalAnalysis)

	w, body := doJSON(t, r, http.MethodPost, "/final-analysis",
		`{"interviewScore": 8, "behaviourMetrics": {"behaviourScore": 7.7, "focusScore": 7.5}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.9, body["finalScore"])
	assert.Equal(t, 7.7, analyzer.got.BehaviourScore)

	for _, payload := range []string{
		`{"interviewScore": 11, "behaviourMetrics": {}}`,
		`{"interviewScore": "8", "behaviourMetrics": {}}`,
		`{"behaviourMetrics": {}}`,
	} {
		w, body = doJSON(t, r, http.MethodPost, "/final-analysis", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
		assert.Equal(t, false, body["success"])
	}

	w, _ = doJSON(t, r, http.MethodPost, "/final-analysis", `{"interviewScore": 8}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = doJSON(t, r, http.MethodPost, "/final-analysis",
		`{"interviewScore": 8, "behaviourMetrics": {"behaviourScore": 50}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "Invalid behaviourMetrics")
}

func TestBehaviourHandler_PostMetrics(t *testing.T) {
	h := NewBehaviourHandler(zap.NewNop(), newBehaviourService(), &fakeAnalyzer{}, "")
	r := withUser(http.MethodPost, "/behaviour/metrics", h.PostMetrics)

	w, body := doJSON(t, r, http.MethodPost, "/behaviour/metrics",
		`{"gaze":[{"x":100,"y":100,"timestamp":1},{"x":100,"y":100,"timestamp":2}],"poses":[],"duration":42}`)

	require.Equal(t, http.StatusOK, w.Code)
	m := body["metrics"].(map[string]any)
	assert.Equal(t, 10.0, m["focusScore"])
	assert.Equal(t, 42.0, m["duration"])

	w, _ = doJSON(t, r, http.MethodPost, "/behaviour/metrics", `{"gaze":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBehaviourHandler_Stream(t *testing.T) {
	h := NewBehaviourHandler(zap.NewNop(), newBehaviourService(), &fakeAnalyzer{}, "")
	srv := httptest.NewServer(withUser(http.MethodGet, "/stream", h.Stream))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(tracking.Message{Type: tracking.MessageStart, Viewport: &models.Viewport{Width: 800, Height: 600}}))
	require.NoError(t, conn.WriteJSON(tracking.Message{Type: tracking.MessageGaze, X: 400, Y: 300, Timestamp: 1}))

	// Ask for a snapshot until the tick has recorded the gaze point.
	var snapshot tracking.Message
	for i := 0; i < 200; i++ {
		require.NoError(t, conn.WriteJSON(tracking.Message{Type: tracking.MessageMetrics}))
		require.NoError(t, conn.ReadJSON(&snapshot))
		if snapshot.Metrics != nil && snapshot.Metrics.SampleCount.Gaze > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, tracking.MessageMetrics, snapshot.Type)
	require.NotNil(t, snapshot.Metrics)
	assert.Positive(t, snapshot.Metrics.SampleCount.Gaze)

	require.NoError(t, conn.WriteJSON(tracking.Message{Type: "bogus"}))
	var reply tracking.Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, tracking.MessageError, reply.Type)

	require.NoError(t, conn.WriteJSON(tracking.Message{Type: tracking.MessageFinish}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, tracking.MessageMetrics, reply.Type)
	require.NotNil(t, reply.Metrics)
	assert.Equal(t, 10.0, reply.Metrics.FocusScore)
}

func TestBehaviourHandler_StreamClosedWhenSuperseded(t *testing.T) {
	h := NewBehaviourHandler(zap.NewNop(), newBehaviourService(), &fakeAnalyzer{}, "")
	srv := httptest.NewServer(withUser(http.MethodGet, "/stream", h.Stream))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"

	open := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(tracking.Message{Type: tracking.MessageStart}))
		require.NoError(t, conn.WriteJSON(tracking.Message{Type: tracking.MessageMetrics}))
		var reply tracking.Message
		require.NoError(t, conn.ReadJSON(&reply))
		require.Equal(t, tracking.MessageMetrics, reply.Type)
		return conn
	}

	older := open()
	defer older.Close()
	newer := open()
	defer newer.Close()

	require.NoError(t, older.WriteJSON(tracking.Message{Type: tracking.MessageGaze, X: 1, Y: 1}))
	var reply tracking.Message
	require.NoError(t, older.ReadJSON(&reply))
	assert.Equal(t, tracking.MessageError, reply.Type)
	assert.Equal(t, errTrackingStopped, reply.Error)
	_, _, err := older.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "%v", err)

	require.NoError(t, newer.WriteJSON(tracking.Message{Type: tracking.MessageMetrics}))
	require.NoError(t, newer.ReadJSON(&reply))
	assert.Equal(t, tracking.MessageMetrics, reply.Type)
}

func TestBehaviourHandler_StreamRequiresStart(t *testing.T) {
	h := NewBehaviourHandler(zap.NewNop(), newBehaviourService(), &fakeAnalyzer{}, "")
	srv := httptest.NewServer(withUser(http.MethodGet, "/stream", h.Stream))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(tracking.Message{Type: tracking.MessageGaze}))
	var reply tracking.Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, tracking.MessageError, reply.Type)
	assert.Equal(t, "expected start message", reply.Error)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/health", Health(map[string]Pinger{
		"redis": pingerFunc(func(context.Context) error { return errors.New("down") }),
	}))

	w, body := doJSON(t, r, http.MethodGet, "/health", ``)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, map[string]any{"redis": "unavailable"}, body["dependencies"])
}

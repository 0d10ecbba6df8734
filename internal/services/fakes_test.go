package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"interview-coach/internal/models"
	"interview-coach/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (g *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.reply(prompt)
}

func replyWith(text string) *fakeGenerator {
	return &fakeGenerator{reply: func(string) (string, error) { return text, nil }}
}

type memoryStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	sessions map[string]*models.InterviewSession
	scores   map[string][]int
	images   map[string]string
	analyses []*models.FinalAnalysis
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    map[string]*models.User{},
		sessions: map[string]*models.InterviewSession{},
		scores:   map[string][]int{},
		images:   map[string]string{},
	}
}

func (m *memoryStore) CreateUser(_ context.Context, username, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return nil, repository.ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, Password: string(hash)}
	m.users[username] = u
	return u, nil
}

func (m *memoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) GetSession(_ context.Context, username string) (*models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memoryStore) SaveSession(_ context.Context, session *models.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.Username] = &cp
	return nil
}

func (m *memoryStore) DeleteSession(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, username)
	return nil
}

func (m *memoryStore) AddScore(_ context.Context, username string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[username] = append(m.scores[username], score)
	return nil
}

func (m *memoryStore) RecentScores(_ context.Context, username string, n int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.scores[username]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return append([]int(nil), all...), nil
}

func (m *memoryStore) ScoreTimeline(_ context.Context, username string) ([]repository.TimelineDataPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var points []repository.TimelineDataPoint
	for i, s := range m.scores[username] {
		points = append(points, repository.TimelineDataPoint{Date: base.AddDate(0, 0, i), Value: float64(s)})
	}
	return points, nil
}

func (m *memoryStore) FinalScoreTimeline(_ context.Context, username string) ([]repository.TimelineDataPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var points []repository.TimelineDataPoint
	for _, a := range m.analyses {
		if a.Username == username {
			points = append(points, repository.TimelineDataPoint{Date: a.CreatedAt, Value: a.FinalScore})
		}
	}
	return points, nil
}

func (m *memoryStore) GetProfileImage(_ context.Context, username string) (*models.ProfileImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.ProfileImage{Username: username, Image: img}, nil
}

func (m *memoryStore) UpsertProfileImage(_ context.Context, username, image string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, existed := m.images[username]
	m.images[username] = image
	return !existed, nil
}

func (m *memoryStore) SaveFinalAnalysis(_ context.Context, a *models.FinalAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, a)
	return nil
}

func (m *memoryStore) LatestFinalAnalysis(_ context.Context, username string) (*models.FinalAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.analyses) - 1; i >= 0; i-- {
		if m.analyses[i].Username == username {
			return m.analyses[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// memoryCache is a cache.Store backed by a map of raw values.
type memoryCache struct {
	mu     sync.Mutex
	values map[string]any
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]any{}}
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *string:
		*d = v.(string)
	case *models.BehaviourMetrics:
		*d = v.(models.BehaviourMetrics)
	}
	return true, nil
}

func contains(s, substr string) bool { return strings.Contains(s, substr) }

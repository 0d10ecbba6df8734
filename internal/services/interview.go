package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"interview-coach/internal/models"
	"interview-coach/internal/repository"

	"go.uber.org/zap"
)

// InterviewService runs the question/answer loop of a mock interview.
type InterviewService struct {
	log      *zap.Logger
	sessions SessionStore
	gen      ContentGenerator
	prompts  *models.PromptLibrary
}

func NewInterviewService(log *zap.Logger, sessions SessionStore, gen ContentGenerator, prompts *models.PromptLibrary) *InterviewService {
	return &InterviewService{log: log, sessions: sessions, gen: gen, prompts: prompts}
}

// Question is a generated interview question and its number in the session.
type Question struct {
	Number int    `json:"qno"`
	Text   string `json:"question"`
}

// NextQuestion generates the next question for domain, using the transcript so far for
// follow-ups, and appends it to the transcript.
func (s *InterviewService) NextQuestion(ctx context.Context, username, domain string) (*Question, error) {
	session, err := s.loadSession(ctx, username)
	if err != nil {
		return nil, err
	}

	var prompt string
	if session.QuestionNo == 0 {
		prompt, err = s.prompts.Render(models.PromptFirstQuestion, map[string]any{"Domain": domain})
	} else {
		prompt, err = s.prompts.Render(models.PromptFollowUpQuestion, map[string]any{
			"Domain":     domain,
			"Transcript": session.Transcript,
		})
	}
	if err != nil {
		return nil, err
	}

	text, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate question: %w", err)
	}
	text = strings.TrimSpace(text)

	session.AppendQuestion(text)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.log.Debug("Question generated", zap.String("username", username), zap.Int("qno", session.QuestionNo))
	return &Question{Number: session.QuestionNo, Text: text}, nil
}

// AddAnswer appends the answer to the current question.
func (s *InterviewService) AddAnswer(ctx context.Context, username, answer string) error {
	session, err := s.sessions.GetSession(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoQuestion
	}
	if err != nil {
		return err
	}
	if session.QuestionNo == 0 {
		return ErrNoQuestion
	}

	session.AppendAnswer(answer)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Reset discards the user's running interview.
func (s *InterviewService) Reset(ctx context.Context, username string) error {
	return s.sessions.DeleteSession(ctx, username)
}

func (s *InterviewService) loadSession(ctx context.Context, username string) (*models.InterviewSession, error) {
	session, err := s.sessions.GetSession(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.InterviewSession{Username: username}, nil
	}
	return session, err
}

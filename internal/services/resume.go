package services

import (
	"context"
	"fmt"
	"strings"

	"interview-coach/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ResumeReview is the model's assessment of a resume for a target role.
type ResumeReview struct {
	Score             string `json:"score"`
	GoodPoints        string `json:"goodPoints"`
	ImprovementPoints string `json:"improvementPoints"`
}

type ResumeService struct {
	log     *zap.Logger
	gen     ContentGenerator
	prompts *models.PromptLibrary
}

func NewResumeService(log *zap.Logger, gen ContentGenerator, prompts *models.PromptLibrary) *ResumeService {
	return &ResumeService{log: log, gen: gen, prompts: prompts}
}

// Check scores the resume and lists its strengths and gaps, running the three prompts
// concurrently. Any failure fails the whole review.
func (s *ResumeService) Check(ctx context.Context, resume, profile string) (*ResumeReview, error) {
	data := map[string]any{"Resume": resume, "Profile": profile}

	var review ResumeReview
	g, ctx := errgroup.WithContext(ctx)
	for name, dst := range map[string]*string{
		models.PromptResumeScore:        &review.Score,
		models.PromptResumeStrengths:    &review.GoodPoints,
		models.PromptResumeImprovements: &review.ImprovementPoints,
	} {
		name, dst := name, dst
		g.Go(func() error {
			prompt, err := s.prompts.Render(name, data)
			if err != nil {
				return err
			}
			text, err := s.gen.GenerateContent(ctx, prompt)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = strings.TrimSpace(text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Error("Resume check failed", zap.String("profile", profile), zap.Error(err))
		return nil, err
	}
	return &review, nil
}

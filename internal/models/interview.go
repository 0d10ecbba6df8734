package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// InterviewSession holds the running question/answer transcript of a user's current mock interview.
type InterviewSession struct {
	ID         uint   `gorm:"primaryKey"`
	Username   string `gorm:"uniqueIndex;not null"`
	Transcript string `gorm:"type:text"`
	QuestionNo int
	UpdatedAt  time.Time
}

// AppendQuestion records the next question and advances the question number.
func (s *InterviewSession) AppendQuestion(question string) {
	s.QuestionNo++
	s.Transcript += fmt.Sprintf("\nQ%d: %s", s.QuestionNo, question)
}

// AppendAnswer records an answer to the current question.
func (s *InterviewSession) AppendAnswer(answer string) {
	s.Transcript += fmt.Sprintf("\nA%d: %s", s.QuestionNo, answer)
}

// ScoreEntry is one overall interview score (0-10) in a user's history.
type ScoreEntry struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"index;not null"`
	Score     int
	CreatedAt time.Time
}

type ProfileImage struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;not null"`
	Image     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// FinalAnalysis stores the combined interview/behaviour result and the coaching feedback given.
type FinalAnalysis struct {
	gorm.Model
	Username          string `gorm:"index;not null"`
	InterviewScore    float64
	BehaviourScore    float64
	FinalScore        float64
	FocusScore        float64
	PostureScore      float64
	CalmnessScore     float64
	OffScreenPercent  float64
	BadPosturePercent float64
	BehaviourFeedback pq.StringArray `gorm:"type:text[]"`
	Tips              pq.StringArray `gorm:"type:text[]"`
}

// Package transcription converts recorded answers to text.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"
)

// ErrEmptyAudio is returned when no audio bytes were supplied.
var ErrEmptyAudio = errors.New("no audio provided")

// Transcriber turns an audio stream into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// transcriptAPI is the subset of the AssemblyAI transcripts service used here.
type transcriptAPI interface {
	TranscribeFromReader(ctx context.Context, reader io.Reader, opts *aai.TranscriptOptionalParams) (aai.Transcript, error)
}

// AssemblyAI transcribes audio with the AssemblyAI API.
type AssemblyAI struct {
	log *zap.Logger
	api transcriptAPI
}

func NewAssemblyAI(log *zap.Logger, apiKey string) *AssemblyAI {
	client := aai.NewClient(apiKey)
	return &AssemblyAI{log: log.Named("transcription"), api: client.Transcripts}
}

// Transcribe uploads audio and waits for the transcript to complete.
func (a *AssemblyAI) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	if audio == nil {
		return "", ErrEmptyAudio
	}

	transcript, err := a.api.TranscribeFromReader(ctx, audio, nil)
	if err != nil {
		a.log.Error("Transcription request failed", zap.Error(err))
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := aai.ToString(transcript.Error)
		a.log.Error("Transcription finished with error", zap.String("id", aai.ToString(transcript.ID)), zap.String("error", msg))
		return "", fmt.Errorf("failed to transcribe audio: %s", msg)
	}

	return aai.ToString(transcript.Text), nil
}

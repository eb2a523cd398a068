// Package transcription turns narrated audio into text for story import
package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
)

// AssemblyAITranscriber transcribes publicly reachable audio URLs.
type AssemblyAITranscriber struct {
	client  *assemblyai.Client
	timeout time.Duration
	logger  *logging.ChanneledLogger
}

// NewAssemblyAITranscriber returns an error when no API key is configured.
func NewAssemblyAITranscriber(apiKey string, timeout time.Duration, logger *logging.ChanneledLogger) (*AssemblyAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	return &AssemblyAITranscriber{
		client:  assemblyai.NewClient(apiKey),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Transcribe submits the audio and waits for the finished transcript text.
func (t *AssemblyAITranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if !strings.HasPrefix(audioURL, "http://") && !strings.HasPrefix(audioURL, "https://") {
		return "", apperr.Invalid("audioUrl", "must be an http or https URL")
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	transcript, err := t.client.Transcripts.TranscribeFromURL(ctx, audioURL, nil)
	if err != nil {
		t.logger.Authoring().Error("Transcription request failed", "error", err.Error(), "duration", time.Since(start))
		return "", apperr.Unavailable("transcribe audio", err)
	}

	if transcript.Status == assemblyai.TranscriptStatusError {
		reason := assemblyai.ToString(transcript.Error)
		t.logger.Authoring().Warn("Transcription finished with error", "id", assemblyai.ToString(transcript.ID), "reason", reason)
		return "", apperr.Invalid("audioUrl", "transcription failed: "+reason)
	}

	text := strings.TrimSpace(assemblyai.ToString(transcript.Text))
	if text == "" {
		return "", apperr.Invalid("audioUrl", "transcript is empty")
	}

	t.logger.Authoring().Info("Audio transcribed",
		"id", assemblyai.ToString(transcript.ID),
		"words", len(strings.Fields(text)),
		"duration", time.Since(start))
	return text, nil
}

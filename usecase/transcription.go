// Package usecase wires quota enforcement, credential rotation and the
// speech backend into the operations the delivery layers call.
package usecase

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lakical/speechbot/domain/repositories"
	"github.com/lakical/speechbot/internal/dispatch"
	"github.com/lakical/speechbot/internal/keypool"
	"github.com/lakical/speechbot/internal/quota"
)

// Media above this size is uploaded to the backend first instead of
// being sent inline as base64.
const inlineLimitBytes = 10 << 20

// SummaryStyle selects how a transcript is condensed.
type SummaryStyle string

const (
	SummaryShort    SummaryStyle = "short"
	SummaryDetailed SummaryStyle = "detailed"
	SummaryBulleted SummaryStyle = "bulleted"
)

// Action is a post-processing operation on a transcript. The set is
// closed: Translate and Summarize.
type Action interface {
	instruction() string
	// Name is the stable identifier used in action usage keys.
	Name() string
}

// Translate renders the transcript in the target language.
type Translate struct {
	Language string
}

func (t Translate) instruction() string {
	return fmt.Sprintf(
		"Translate the following text to %s. Keep the original meaning and tone. Return ONLY the translation, no explanations.",
		t.Language)
}

// Name implements Action
func (t Translate) Name() string { return "translate" }

// Summarize condenses the transcript in the chosen style.
type Summarize struct {
	Style SummaryStyle
}

func (s Summarize) instruction() string {
	switch s.Style {
	case SummaryDetailed:
		return "Write a detailed summary of the following text. Cover every important point in the original language of the text. Return ONLY the summary."
	case SummaryBulleted:
		return "Summarize the following text as concise bullet points in the original language of the text. Return ONLY the bullet points."
	default:
		return "Write a short summary of the following text in 2-3 sentences, in the original language of the text. Return ONLY the summary."
	}
}

// Name implements Action
func (s Summarize) Name() string { return "summarize" }

// Service runs transcription and transcript actions. Every remote call
// passes through the quota gate first and is dispatched across the
// credential pool; usage is charged only after the call succeeds.
type Service struct {
	backend    repositories.SpeechBackend
	dispatcher *dispatch.Dispatcher
	ledger     *quota.Ledger
	logger     *zap.Logger
}

// NewService creates a transcription service
func NewService(
	backend repositories.SpeechBackend,
	dispatcher *dispatch.Dispatcher,
	ledger *quota.Ledger,
	logger *zap.Logger,
) *Service {
	return &Service{
		backend:    backend,
		dispatcher: dispatcher,
		ledger:     ledger,
		logger:     logger,
	}
}

// Ledger exposes the usage ledger for delivery-layer queries.
func (s *Service) Ledger() *quota.Ledger {
	return s.ledger
}

// Transcribe converts the media file at path to text. Small files go
// inline; larger ones take the upload flow.
func (s *Service) Transcribe(ctx context.Context, uid int64, path, mimeType string) (string, error) {
	if err := s.ledger.CheckAndReserve(ctx, uid); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat media file: %w", err)
	}

	var call dispatch.Call
	if info.Size() > inlineLimitBytes {
		call = func(ctx context.Context, c keypool.Credential) (string, error) {
			return s.backend.UploadAndTranscribe(ctx, string(c), path)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read media file: %w", err)
		}
		call = func(ctx context.Context, c keypool.Credential) (string, error) {
			return s.backend.Transcribe(ctx, string(c), data, mimeType)
		}
	}

	text, err := s.dispatcher.Do(ctx, call)
	if err != nil {
		return "", err
	}

	if err := s.ledger.Commit(ctx, uid); err != nil {
		s.logger.Warn("Usage commit failed after successful transcription",
			zap.Int64("user_id", uid), zap.Error(err))
	}
	return text, nil
}

// Apply runs an action against previously produced text. Actions are
// charged against the same quota as transcriptions.
func (s *Service) Apply(ctx context.Context, uid int64, action Action, text string) (string, error) {
	if err := s.ledger.CheckAndReserve(ctx, uid); err != nil {
		return "", err
	}

	instruction := action.instruction()
	out, err := s.dispatcher.Do(ctx, func(ctx context.Context, c keypool.Credential) (string, error) {
		return s.backend.Generate(ctx, string(c), instruction, text)
	})
	if err != nil {
		return "", err
	}

	if err := s.ledger.Commit(ctx, uid); err != nil {
		s.logger.Warn("Usage commit failed after successful action",
			zap.Int64("user_id", uid),
			zap.String("action", action.Name()),
			zap.Error(err))
	}
	return out, nil
}

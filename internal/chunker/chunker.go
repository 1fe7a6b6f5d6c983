// Package chunker delivers arbitrary-length result text over a
// transport with a hard message-size ceiling, either as consecutive
// size-bounded messages or as a single packaged text document.
package chunker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lakical/speechbot/domain/entities"
)

// Sender abstracts the transport surface the chunker needs. The
// telegram adapter implements it; tests use a fake.
type Sender interface {
	// SendText delivers one message and returns its handle.
	SendText(chatID int64, text string, replyTo int) (int, error)
	// SendDocument delivers a local file as a document and returns its
	// handle.
	SendDocument(chatID int64, path string, caption string, replyTo int) (int, error)
}

// Chunker splits or packages text that exceeds the transport limit.
type Chunker struct {
	sender Sender
	limit  int
	dir    string
	logger *zap.Logger
}

// New creates a chunker. limit is the transport's maximum message
// size in bytes; dir is where temporary document artifacts are
// written.
func New(sender Sender, limit int, dir string, logger *zap.Logger) *Chunker {
	return &Chunker{
		sender: sender,
		limit:  limit,
		dir:    dir,
		logger: logger,
	}
}

// Split partitions text into consecutive segments of exactly limit
// bytes, the final one possibly shorter. Partitioning is a pure
// function of length, not word-aware.
func Split(text string, limit int) []string {
	if limit <= 0 || text == "" {
		return []string{text}
	}
	var segments []string
	for i := 0; i < len(text); i += limit {
		end := i + limit
		if end > len(text) {
			end = len(text)
		}
		segments = append(segments, text[i:end])
	}
	return segments
}

// Deliver sends text to chatID threading replies to replyTo. Text
// within the limit goes out as one message regardless of mode. Longer
// text is either split into consecutive messages (OutputModeSplit,
// last handle returned) or packaged into a temporary .txt document
// (OutputModeTextFile) that is removed on every exit path. name labels
// the document file ("Transcript", "Summarize", ...).
func (c *Chunker) Deliver(chatID int64, text string, replyTo int, mode entities.OutputMode, name string) (int, error) {
	if len(text) <= c.limit {
		return c.sender.SendText(chatID, text, replyTo)
	}

	if mode == entities.OutputModeSplit {
		last := 0
		for _, segment := range Split(text, c.limit) {
			handle, err := c.sender.SendText(chatID, segment, replyTo)
			if err != nil {
				return last, fmt.Errorf("failed to send segment: %w", err)
			}
			last = handle
		}
		return last, nil
	}

	return c.deliverDocument(chatID, text, replyTo, name)
}

func (c *Chunker) deliverDocument(chatID int64, text string, replyTo int, name string) (int, error) {
	path := filepath.Join(c.dir, fmt.Sprintf("%s-%s.txt", name, uuid.NewString()))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write document artifact: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("Failed to remove document artifact",
				zap.String("path", path),
				zap.Error(err))
		}
	}()

	handle, err := c.sender.SendDocument(chatID, path, "Open this file and copy the text inside 👍", replyTo)
	if err != nil {
		return 0, fmt.Errorf("failed to send document: %w", err)
	}
	return handle, nil
}

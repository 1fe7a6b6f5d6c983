package bot

import (
	"testing"

	"github.com/lakical/speechbot/domain/entities"
)

func TestPendingConsumedOnce(t *testing.T) {
	s := NewStore()
	s.SetPending(&entities.PendingRequest{ChatID: 1, UserID: 2, MessageID: 3, FilePath: "/tmp/a", MimeType: "audio/ogg"})

	first := s.TakePending(1)
	if first == nil || first.FilePath != "/tmp/a" {
		t.Fatalf("Expected pending request back, got %+v", first)
	}
	if second := s.TakePending(1); second != nil {
		t.Error("Pending request must be consumed exactly once")
	}
}

func TestPendingReplacedByNewerFile(t *testing.T) {
	s := NewStore()
	s.SetPending(&entities.PendingRequest{ChatID: 1, FilePath: "/tmp/old"})
	s.SetPending(&entities.PendingRequest{ChatID: 1, FilePath: "/tmp/new"})

	got := s.TakePending(1)
	if got == nil || got.FilePath != "/tmp/new" {
		t.Errorf("Expected newest pending file, got %+v", got)
	}
}

func TestModeDefaultsToTextFile(t *testing.T) {
	s := NewStore()
	if mode := s.Mode(42); mode != entities.OutputModeTextFile {
		t.Errorf("Expected default text file mode, got %q", mode)
	}

	s.SetMode(42, entities.OutputModeSplit)
	if mode := s.Mode(42); mode != entities.OutputModeSplit {
		t.Errorf("Expected split mode after selection, got %q", mode)
	}
}

func TestTranscriptLookup(t *testing.T) {
	s := NewStore()
	s.SaveTranscript(1, 100, &entities.Transcript{Text: "hello", OriginID: 99})

	if got := s.Transcript(1, 100); got == nil || got.Text != "hello" || got.OriginID != 99 {
		t.Errorf("Unexpected transcript %+v", got)
	}
	if got := s.Transcript(1, 101); got != nil {
		t.Error("Expected nil for unknown message id")
	}
	if got := s.Transcript(2, 100); got != nil {
		t.Error("Expected nil for unknown chat")
	}
}

func TestLanguageSelection(t *testing.T) {
	s := NewStore()
	if lang := s.Language(1); lang != "" {
		t.Errorf("Expected no language before selection, got %q", lang)
	}
	s.SetLanguage(1, "so")
	if lang := s.Language(1); lang != "so" {
		t.Errorf("Expected stored language, got %q", lang)
	}
}

package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lakical/speechbot/internal/dispatch"
	"github.com/lakical/speechbot/internal/keypool"
	"github.com/lakical/speechbot/internal/quota"
)

type fakeBackend struct {
	transcribeCalls int
	generateCalls   int
	uploadCalls     int
	failKeys        map[string]bool
	lastInstruction string
	lastMime        string
}

func (f *fakeBackend) Transcribe(ctx context.Context, key string, audio []byte, mimeType string) (string, error) {
	f.transcribeCalls++
	f.lastMime = mimeType
	if f.failKeys[key] {
		return "", errors.New("backend rejected key")
	}
	return "transcript via " + key, nil
}

func (f *fakeBackend) UploadAndTranscribe(ctx context.Context, key string, path string) (string, error) {
	f.uploadCalls++
	if f.failKeys[key] {
		return "", errors.New("backend rejected key")
	}
	return "uploaded transcript via " + key, nil
}

func (f *fakeBackend) Generate(ctx context.Context, key string, instruction, text string) (string, error) {
	f.generateCalls++
	f.lastInstruction = instruction
	if f.failKeys[key] {
		return "", errors.New("backend rejected key")
	}
	return "generated via " + key, nil
}

func newTestService(t *testing.T, backend *fakeBackend, keys ...string) *Service {
	t.Helper()
	creds := make([]keypool.Credential, len(keys))
	for i, k := range keys {
		creds[i] = keypool.Credential(k)
	}
	pool := keypool.New(creds)
	dispatcher := dispatch.New(pool, time.Second, zap.NewNop())
	ledger := quota.NewLedger(3, 24*time.Hour, nil, nil, zap.NewNop())
	return NewService(backend, dispatcher, ledger, zap.NewNop())
}

func writeMedia(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.ogg")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeChargesAfterSuccess(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend, "key-a")
	path := writeMedia(t, "audio")

	text, err := svc.Transcribe(context.Background(), 42, path, "audio/ogg")
	if err != nil {
		t.Fatal(err)
	}
	if text != "transcript via key-a" {
		t.Errorf("Unexpected transcript %q", text)
	}
	if count, _ := svc.Ledger().Usage(context.Background(), 42); count != 1 {
		t.Errorf("Expected one charged call, got %d", count)
	}
	if backend.lastMime != "audio/ogg" {
		t.Errorf("Mime type not forwarded, got %q", backend.lastMime)
	}
}

func TestTranscribeRotatesPastFailingCredential(t *testing.T) {
	backend := &fakeBackend{failKeys: map[string]bool{"key-a": true}}
	svc := newTestService(t, backend, "key-a", "key-b")
	path := writeMedia(t, "audio")

	text, err := svc.Transcribe(context.Background(), 42, path, "audio/ogg")
	if err != nil {
		t.Fatal(err)
	}
	if text != "transcript via key-b" {
		t.Errorf("Expected fallback credential result, got %q", text)
	}
}

func TestTranscribeDoesNotChargeOnFailure(t *testing.T) {
	backend := &fakeBackend{failKeys: map[string]bool{"key-a": true}}
	svc := newTestService(t, backend, "key-a")
	path := writeMedia(t, "audio")

	_, err := svc.Transcribe(context.Background(), 42, path, "audio/ogg")
	var exhausted *dispatch.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected exhaustion error, got %v", err)
	}
	if count, _ := svc.Ledger().Usage(context.Background(), 42); count != 0 {
		t.Errorf("Failed call must not be charged, got count %d", count)
	}
}

func TestTranscribeBlockedAtLimit(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend, "key-a")
	path := writeMedia(t, "audio")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Transcribe(ctx, 42, path, "audio/ogg"); err != nil {
			t.Fatal(err)
		}
	}

	_, err := svc.Transcribe(ctx, 42, path, "audio/ogg")
	var quotaErr *quota.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected quota error, got %v", err)
	}
	if backend.transcribeCalls != 3 {
		t.Errorf("Blocked call must not reach the backend, got %d calls", backend.transcribeCalls)
	}
}

func TestApplyTranslate(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend, "key-a")

	out, err := svc.Apply(context.Background(), 42, Translate{Language: "French"}, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "generated via key-a" {
		t.Errorf("Unexpected output %q", out)
	}
	if !strings.Contains(backend.lastInstruction, "French") {
		t.Errorf("Instruction must name the target language, got %q", backend.lastInstruction)
	}
}

func TestApplySummaryStyles(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend, "key-a")
	ctx := context.Background()

	cases := []struct {
		style SummaryStyle
		want  string
	}{
		{SummaryShort, "short summary"},
		{SummaryDetailed, "detailed summary"},
		{SummaryBulleted, "bullet points"},
	}
	for _, tc := range cases {
		if _, err := svc.Apply(ctx, int64(100)+int64(len(tc.want)), Summarize{Style: tc.style}, "text"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(backend.lastInstruction, tc.want) {
			t.Errorf("Style %s: instruction %q missing %q", tc.style, backend.lastInstruction, tc.want)
		}
	}
}

func TestApplyEmptyPool(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	_, err := svc.Apply(context.Background(), 42, Translate{Language: "German"}, "hello")
	if !errors.Is(err, dispatch.ErrNoCredentials) {
		t.Fatalf("Expected ErrNoCredentials, got %v", err)
	}
}

package repositories

import "context"

// SpeechBackend abstracts the remote transcription/generation service.
// Every call carries the API key to use, so a dispatcher can retry the
// same request across a pool of credentials.
type SpeechBackend interface {
	// Transcribe converts audio data to text using inline file bytes.
	Transcribe(ctx context.Context, key string, audio []byte, mimeType string) (string, error)
	// UploadAndTranscribe uploads a local file to the backend first and
	// transcribes it by reference. Used for larger media.
	UploadAndTranscribe(ctx context.Context, key string, path string) (string, error)
	// Generate runs a natural-language instruction against previously
	// produced text (translate, summarize).
	Generate(ctx context.Context, key string, instruction, text string) (string, error)
}

package entities

// OutputMode controls how oversized transcripts are delivered.
type OutputMode string

const (
	// OutputModeSplit delivers long text as consecutive size-bounded
	// messages.
	OutputModeSplit OutputMode = "Split messages"
	// OutputModeTextFile packages long text into a single .txt document.
	// This is the default.
	OutputModeTextFile OutputMode = "Text File"
)

// PendingRequest associates a chat with a downloaded media file that is
// waiting for a language selection before it can be transcribed. It is
// consumed exactly once when the selection callback arrives. Entries
// for users who never respond are not expired.
type PendingRequest struct {
	ChatID    int64
	UserID    int64
	MessageID int
	FilePath  string
	MimeType  string
}

// Transcript remembers a delivered transcription so follow-up actions
// (translate, summarize) can reference it by the sent message id.
type Transcript struct {
	Text     string
	OriginID int
}

package bot

import (
	"sync"

	"github.com/lakical/speechbot/domain/entities"
)

// Store holds per-chat conversational state between updates. All
// access is serialized by one lock; handlers run concurrently.
type Store struct {
	mu          sync.Mutex
	pending     map[int64]*entities.PendingRequest
	transcripts map[int64]map[int]*entities.Transcript
	modes       map[int64]entities.OutputMode
	languages   map[int64]string
}

// NewStore creates an empty state store
func NewStore() *Store {
	return &Store{
		pending:     make(map[int64]*entities.PendingRequest),
		transcripts: make(map[int64]map[int]*entities.Transcript),
		modes:       make(map[int64]entities.OutputMode),
		languages:   make(map[int64]string),
	}
}

// SetPending parks a downloaded media file until the chat picks a
// language. A new file replaces any previous pending one.
func (s *Store) SetPending(req *entities.PendingRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[req.ChatID] = req
}

// TakePending removes and returns the pending request for chatID.
// Consuming is atomic so a request is processed at most once.
func (s *Store) TakePending(chatID int64) *entities.PendingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.pending[chatID]
	delete(s.pending, chatID)
	return req
}

// SaveTranscript remembers a delivered transcript under the sent
// message id so follow-up actions can find it.
func (s *Store) SaveTranscript(chatID int64, messageID int, t *entities.Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transcripts[chatID] == nil {
		s.transcripts[chatID] = make(map[int]*entities.Transcript)
	}
	s.transcripts[chatID][messageID] = t
}

// Transcript returns the transcript delivered as messageID in chatID,
// or nil.
func (s *Store) Transcript(chatID int64, messageID int) *entities.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcripts[chatID][messageID]
}

// SetMode stores the user's long-output delivery preference.
func (s *Store) SetMode(userID int64, mode entities.OutputMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[userID] = mode
}

// Mode returns the user's delivery preference, defaulting to the text
// file mode.
func (s *Store) Mode(userID int64) entities.OutputMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode, ok := s.modes[userID]; ok {
		return mode
	}
	return entities.OutputModeTextFile
}

// SetLanguage stores the chat's selected spoken language code.
func (s *Store) SetLanguage(chatID int64, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languages[chatID] = code
}

// Language returns the chat's selected language code, or "".
func (s *Store) Language(chatID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.languages[chatID]
}

package entities

import (
	"fmt"
	"time"
)

// UsageRecord tracks how many remote calls a user has made within the
// current rolling window. WindowStart is seconds since the Unix epoch;
// zero means the user has never been charged.
type UsageRecord struct {
	UserID      int64 `json:"uid" bson:"uid"`
	Count       int   `json:"count" bson:"count"`
	WindowStart int64 `json:"window_start" bson:"window_start"`
}

// NewUsageRecord creates a fresh record with an open window starting now.
func NewUsageRecord(userID int64, now int64) *UsageRecord {
	return &UsageRecord{
		UserID:      userID,
		Count:       0,
		WindowStart: now,
	}
}

// WindowExpired reports whether the rolling window has elapsed.
// An unset window never expires; it is opened on first charge instead.
func (r *UsageRecord) WindowExpired(now int64, window time.Duration) bool {
	if r.WindowStart == 0 {
		return false
	}
	return now-r.WindowStart >= int64(window.Seconds())
}

// Reset opens a new window and clears the counter.
func (r *UsageRecord) Reset(now int64) {
	r.Count = 0
	r.WindowStart = now
}

// Charge increments the counter, opening the window if it is unset.
func (r *UsageRecord) Charge(now int64) {
	r.Count++
	if r.WindowStart == 0 {
		r.WindowStart = now
	}
}

// Exhausted reports whether the user has reached the configured limit
// within the open window.
func (r *UsageRecord) Exhausted(limit int) bool {
	return r.Count >= limit
}

// Remaining returns how long until the window expires. Zero when the
// window is unset or already elapsed.
func (r *UsageRecord) Remaining(now int64, window time.Duration) time.Duration {
	if r.WindowStart == 0 {
		return 0
	}
	rem := int64(window.Seconds()) - (now - r.WindowStart)
	if rem <= 0 {
		return 0
	}
	return time.Duration(rem) * time.Second
}

// ActionUsageRecord counts how many times a derived action (summarize,
// translate) was applied to a specific transcript. Keyed by
// chat|message|action, created on first use and never reset.
type ActionUsageRecord struct {
	Key   string `json:"key" bson:"key"`
	Count int    `json:"count" bson:"count"`
}

// ActionKey builds the composite key for an action usage record.
func ActionKey(chatID int64, messageID int, action string) string {
	return fmt.Sprintf("%d|%d|%s", chatID, messageID, action)
}

// FormatHMS renders a duration as "Xh Ym Zs" for user-facing wait
// messages.
func FormatHMS(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// Package bot runs the Telegram front end: long polling, command and
// callback handlers, media downloads and transcript delivery.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lakical/speechbot/domain/entities"
	"github.com/lakical/speechbot/internal/chunker"
	"github.com/lakical/speechbot/internal/dispatch"
	"github.com/lakical/speechbot/internal/quota"
	"github.com/lakical/speechbot/usecase"
)

// maxWorkers bounds how many updates are processed concurrently.
const maxWorkers = 8

const welcomeText = "👋 Salaam!\n" +
	"• Send me\n" +
	"• voice message\n" +
	"• audio file\n" +
	"• video\n" +
	"• to transcribe for free\n\n" +
	"Select the language spoken in your audio or video:"

// Bot is the Telegram delivery layer over the transcription service.
type Bot struct {
	api          *tgbotapi.BotAPI
	service      *usecase.Service
	chunker      *chunker.Chunker
	state        *Store
	maxUpload    int64
	downloadsDir string
	logger       *zap.Logger
}

// New creates the bot front end. maxUpload is the media size cap in
// bytes; downloadsDir holds downloaded media until transcription
// finishes.
func New(
	api *tgbotapi.BotAPI,
	service *usecase.Service,
	maxUpload int64,
	maxChunk int,
	downloadsDir string,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:          api,
		service:      service,
		chunker:      chunker.New(&telegramSender{api: api}, maxChunk, downloadsDir, logger),
		state:        NewStore(),
		maxUpload:    maxUpload,
		downloadsDir: downloadsDir,
		logger:       logger,
	}
}

// Run long-polls for updates until ctx is cancelled. Updates are
// handled concurrently, bounded by a worker semaphore.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	sem := make(chan struct{}, maxWorkers)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(u tgbotapi.Update) {
				defer func() { <-sem }()
				b.handleUpdate(ctx, u)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in update handler", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleMedia(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		reply := tgbotapi.NewMessage(msg.Chat.ID, welcomeText)
		reply.ReplyToMessageID = msg.MessageID
		reply.ReplyMarkup = buildLangKeyboard(originFile)
		b.send(reply)
	case "mode":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "How do I send you long transcripts?:")
		reply.ReplyToMessageID = msg.MessageID
		reply.ReplyMarkup = buildModeKeyboard()
		b.send(reply)
	case "lang":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Select the language spoken in your audio or video:")
		reply.ReplyToMessageID = msg.MessageID
		reply.ReplyMarkup = buildLangKeyboard(originFile)
		b.send(reply)
	case "getcount":
		b.replyUsage(ctx, msg)
	}
}

func (b *Bot) replyUsage(ctx context.Context, msg *tgbotapi.Message) {
	ledger := b.service.Ledger()
	count, remaining := ledger.Usage(ctx, msg.From.ID)
	limit := ledger.Limit()

	var text string
	if count >= limit {
		text = fmt.Sprintf("You have reached the daily limit of %d. Time remaining: %s.",
			limit, entities.FormatHMS(remaining))
	} else {
		text = fmt.Sprintf("Used: %d. Remaining time in window: %s. Limit: %d.",
			count, entities.FormatHMS(remaining), limit)
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	b.send(reply)
}

// extractMedia returns the transferable file attached to msg, if any.
func extractMedia(msg *tgbotapi.Message) (fileID, mimeType string, size int64) {
	switch {
	case msg.Voice != nil:
		return msg.Voice.FileID, "audio/ogg", int64(msg.Voice.FileSize)
	case msg.Audio != nil:
		mime := msg.Audio.MimeType
		if mime == "" {
			mime = "audio/mp3"
		}
		return msg.Audio.FileID, mime, int64(msg.Audio.FileSize)
	case msg.Video != nil:
		mime := msg.Video.MimeType
		if mime == "" {
			mime = "video/mp4"
		}
		return msg.Video.FileID, mime, int64(msg.Video.FileSize)
	case msg.Document != nil:
		mime := msg.Document.MimeType
		if mime == "" {
			mime = "audio/mp3"
		}
		return msg.Document.FileID, mime, int64(msg.Document.FileSize)
	}
	return "", "", 0
}

func (b *Bot) handleMedia(ctx context.Context, msg *tgbotapi.Message) {
	fileID, mimeType, size := extractMedia(msg)
	if fileID == "" {
		return
	}
	if size > b.maxUpload {
		b.replyText(msg, fmt.Sprintf("Just Send me a file less than %dMB 😎", b.maxUpload>>20))
		return
	}

	b.sendTyping(msg.Chat.ID)
	path, err := b.download(ctx, fileID)
	if err != nil {
		b.logger.Error("Media download failed", zap.Error(err))
		b.replyText(msg, "❌ Error: could not download your file, try again.")
		return
	}

	req := &entities.PendingRequest{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		MessageID: msg.MessageID,
		FilePath:  path,
		MimeType:  mimeType,
	}

	if b.state.Language(msg.Chat.ID) == "" {
		b.state.SetPending(req)
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Select the language spoken in your audio or video:")
		reply.ReplyToMessageID = msg.MessageID
		reply.ReplyMarkup = buildLangKeyboard(originFile)
		b.send(reply)
		return
	}

	b.transcribeAndDeliver(ctx, req)
}

// download fetches the Telegram file to a uniquely named local path.
func (b *Bot) download(ctx context.Context, fileID string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	path := filepath.Join(b.downloadsDir, "media-"+uuid.NewString())
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save media file: %w", err)
	}
	return path, nil
}

// transcribeAndDeliver runs the full transcription flow for a
// downloaded media file and always removes the file afterwards.
func (b *Bot) transcribeAndDeliver(ctx context.Context, req *entities.PendingRequest) {
	defer func() {
		if err := os.Remove(req.FilePath); err != nil && !os.IsNotExist(err) {
			b.logger.Warn("Failed to remove downloaded media", zap.String("path", req.FilePath), zap.Error(err))
		}
	}()

	b.sendTyping(req.ChatID)
	text, err := b.service.Transcribe(ctx, req.UserID, req.FilePath, req.MimeType)
	if err != nil {
		b.reportError(req.ChatID, req.MessageID, err)
		return
	}
	if text == "" {
		b.reportError(req.ChatID, req.MessageID, errors.New("empty transcription"))
		return
	}

	mode := b.state.Mode(req.UserID)
	sentID, err := b.chunker.Deliver(req.ChatID, text, req.MessageID, mode, "Transcript")
	if err != nil {
		b.logger.Error("Transcript delivery failed", zap.Int64("chat_id", req.ChatID), zap.Error(err))
		return
	}

	b.state.SaveTranscript(req.ChatID, sentID, &entities.Transcript{
		Text:     text,
		OriginID: req.MessageID,
	})

	// Best effort, document deliveries cannot carry inline keyboards.
	edit := tgbotapi.NewEditMessageReplyMarkup(req.ChatID, sentID, buildActionKeyboard(len(text)))
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debug("Could not attach action keyboard", zap.Error(err))
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	switch {
	case strings.HasPrefix(data, "mode|"):
		b.handleModeCallback(cb)
	case strings.HasPrefix(data, "lang|"):
		b.handleLangCallback(ctx, cb)
	case strings.HasPrefix(data, "translate_menu|"):
		b.editMarkup(cb.Message.Chat.ID, cb.Message.MessageID, buildLangKeyboard("trans"))
		b.answer(cb, "Pick a target language")
	case strings.HasPrefix(data, "summarize_menu|"):
		b.editMarkup(cb.Message.Chat.ID, cb.Message.MessageID, buildSummarizeKeyboard(cb.Message.MessageID))
		b.answer(cb, "Pick a summary style")
	case strings.HasPrefix(data, "summopt|"):
		b.handleSummarizeCallback(ctx, cb)
	}
}

func (b *Bot) handleModeCallback(cb *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(cb.Data, "|", 2)
	if len(parts) != 2 {
		b.alert(cb, "Invalid callback data.")
		return
	}
	mode := entities.OutputMode(parts[1])
	b.state.SetMode(cb.From.ID, mode)

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("you choosed: %s", mode))
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debug("Could not edit mode message", zap.Error(err))
	}
	b.answer(cb, fmt.Sprintf("Mode set to: %s ☑️", mode))
}

func (b *Bot) handleLangCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	parts := strings.Split(cb.Data, "|")
	if len(parts) != 4 {
		b.alert(cb, "Invalid callback data.")
		return
	}
	code, label, origin := parts[1], parts[2], parts[3]

	if origin != originFile {
		// Translate action on the transcript carrying this keyboard.
		b.clearMarkup(cb.Message.Chat.ID, cb.Message.MessageID)
		b.runAction(ctx, cb, cb.Message.MessageID, usecase.Translate{Language: label}, "Translate")
		return
	}

	chatID := cb.Message.Chat.ID
	b.state.SetLanguage(chatID, code)
	b.answer(cb, fmt.Sprintf("Language set: %s ☑️", label))
	b.clearMarkup(chatID, cb.Message.MessageID)

	if req := b.state.TakePending(chatID); req != nil {
		b.transcribeAndDeliver(ctx, req)
	}
}

func (b *Bot) handleSummarizeCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	parts := strings.Split(cb.Data, "|")
	if len(parts) != 3 {
		b.alert(cb, "Invalid option")
		return
	}
	origin, err := strconv.Atoi(parts[2])
	if err != nil {
		b.alert(cb, "Invalid option")
		return
	}

	chatID := cb.Message.Chat.ID
	key := entities.ActionKey(chatID, origin, "Summarize")
	if b.service.Ledger().ActionCount(ctx, key) >= 1 {
		b.alert(cb, "Already summarized!")
		return
	}

	var style usecase.SummaryStyle
	switch parts[1] {
	case "Detailed":
		style = usecase.SummaryDetailed
	case "Bulleted":
		style = usecase.SummaryBulleted
	default:
		style = usecase.SummaryShort
	}

	b.clearMarkup(chatID, cb.Message.MessageID)
	if b.runAction(ctx, cb, origin, usecase.Summarize{Style: style}, "Summarize") {
		b.service.Ledger().IncrementAction(ctx, key)
	}
}

// runAction applies a transcript action and delivers the result.
// Reports whether the action succeeded.
func (b *Bot) runAction(ctx context.Context, cb *tgbotapi.CallbackQuery, originMsgID int, action usecase.Action, name string) bool {
	chatID := cb.Message.Chat.ID
	t := b.state.Transcript(chatID, originMsgID)
	if t == nil {
		b.alert(cb, "Data not found (expired). Resend file.")
		return false
	}

	b.answer(cb, "Processing...")
	b.sendTyping(chatID)

	out, err := b.service.Apply(ctx, cb.From.ID, action, t.Text)
	if err != nil {
		b.reportError(chatID, t.OriginID, err)
		return false
	}

	mode := b.state.Mode(cb.From.ID)
	if _, err := b.chunker.Deliver(chatID, out, t.OriginID, mode, name); err != nil {
		b.logger.Error("Action result delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return false
	}
	return true
}

// reportError translates service errors into user-facing replies.
// Credential material never reaches the chat.
func (b *Bot) reportError(chatID int64, replyTo int, err error) {
	var quotaErr *quota.QuotaExceededError
	var exhausted *dispatch.ExhaustedError

	var text string
	switch {
	case errors.As(err, &quotaErr):
		text = fmt.Sprintf("Daily limit reached. Time left: %s.", entities.FormatHMS(quotaErr.Remaining))
	case errors.Is(err, dispatch.ErrNoCredentials):
		text = "❌ The service is not configured yet, try again later."
	case errors.As(err, &exhausted):
		text = "❌ The transcription service is overloaded, try again later."
	default:
		text = "❌ Error: something went wrong, try again."
	}

	b.logger.Warn("User-visible failure", zap.Int64("chat_id", chatID), zap.Error(err))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	b.send(msg)
}

func (b *Bot) replyText(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	b.send(reply)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(action); err != nil {
		b.logger.Debug("Failed to send chat action", zap.Error(err))
	}
}

func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}

func (b *Bot) alert(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(cb.ID, text)); err != nil {
		b.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}

func (b *Bot) editMarkup(chatID int64, messageID int, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debug("Failed to edit reply markup", zap.Error(err))
	}
}

func (b *Bot) clearMarkup(chatID int64, messageID int) {
	b.editMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
}

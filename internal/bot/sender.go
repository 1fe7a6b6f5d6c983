package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramSender adapts the bot API to the chunker's transport
// interface.
type telegramSender struct {
	api *tgbotapi.BotAPI
}

func (s *telegramSender) SendText(chatID int64, text string, replyTo int) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	sent, err := s.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

func (s *telegramSender) SendDocument(chatID int64, path string, caption string, replyTo int) (int, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	doc.ReplyToMessageID = replyTo
	sent, err := s.api.Send(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to send document: %w", err)
	}
	return sent.MessageID, nil
}

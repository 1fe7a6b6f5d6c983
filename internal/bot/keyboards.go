package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lakical/speechbot/domain/entities"
)

// language pairs a button label with the language code carried in the
// callback payload.
type language struct {
	Label string
	Code  string
}

var languages = []language{
	{"🇬🇧 English", "en"}, {"🇸🇦 العربية", "ar"}, {"🇪🇸 Español", "es"}, {"🇫🇷 Français", "fr"},
	{"🇷🇺 Русский", "ru"}, {"🇩🇪 Deutsch", "de"}, {"🇮🇳 हिन्दी", "hi"}, {"🇮🇷 فارسی", "fa"},
	{"🇮🇩 Indonesia", "id"}, {"🇺🇦 Українська", "uk"}, {"🇦🇿 Azərbaycan", "az"}, {"🇮🇹 Italiano", "it"},
	{"🇹🇷 Türkçe", "tr"}, {"🇧🇬 Български", "bg"}, {"🇷🇸 Srpski", "sr"}, {"🇵🇰 اردو", "ur"},
	{"🇹🇭 ไทย", "th"}, {"🇻🇳 Tiếng Việt", "vi"}, {"🇯🇵 日本語", "ja"}, {"🇰🇷 한국어", "ko"},
	{"🇨🇳 中文", "zh"}, {"🇳🇱 Nederlands", "nl"}, {"🇸🇪 Svenska", "sv"}, {"🇳🇴 Norsk", "no"},
	{"🇮🇱 עברית", "he"}, {"🇩🇰 Dansk", "da"}, {"🇪🇹 አማርኛ", "am"}, {"🇫🇮 Suomi", "fi"},
	{"🇧🇩 বাংলা", "bn"}, {"🇰🇪 Kiswahili", "sw"}, {"🇪🇹 Oromo", "om"}, {"🇳🇵 नेपाली", "ne"},
	{"🇵🇱 Polski", "pl"}, {"🇬🇷 Ελληνικά", "el"}, {"🇨🇿 Čeština", "cs"}, {"🇮🇸 Íslenska", "is"},
	{"🇱🇹 Lietuvių", "lt"}, {"🇱🇻 Latviešu", "lv"}, {"🇭🇷 Hrvatski", "hr"}, {"🇷🇸 Bosanski", "bs"},
	{"🇭🇺 Magyar", "hu"}, {"🇷🇴 Română", "ro"}, {"🇸🇴 Somali", "so"}, {"🇲🇾 Melayu", "ms"},
	{"🇺🇿 O'zbekcha", "uz"}, {"🇵🇭 Tagalog", "tl"}, {"🇵🇹 Português", "pt"},
}

// originFile marks a language selection for a pending media file, as
// opposed to a translate request carrying the transcript message id.
const originFile = "file"

// buildLangKeyboard lays the language buttons out three per row.
func buildLangKeyboard(origin string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, lang := range languages {
		data := fmt.Sprintf("lang|%s|%s|%s", lang.Code, lang.Label, origin)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(lang.Label, data))
		if (i+1)%3 == 0 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func buildModeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Split messages", "mode|"+string(entities.OutputModeSplit)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 Text File", "mode|"+string(entities.OutputModeTextFile)),
		),
	)
}

func buildSummarizeKeyboard(origin int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Short", fmt.Sprintf("summopt|Short|%d", origin)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Detailed", fmt.Sprintf("summopt|Detailed|%d", origin)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Bulleted", fmt.Sprintf("summopt|Bulleted|%d", origin)),
		),
	)
}

// buildActionKeyboard offers follow-up actions on a delivered
// transcript. Summarizing short texts is not useful, so the button
// only appears past a length threshold.
func buildActionKeyboard(textLen int) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐️ Get translating", "translate_menu|"),
		),
	}
	if textLen > 1000 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Get Summarize", "summarize_menu|"),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

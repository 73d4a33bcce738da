package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Запрещенные в групповых чатах слова.
var restrictedWords = map[string]struct{}{
	"скотина":  {},
	"крыса":    {},
	"порно":    {},
	"козел":    {},
	"выхухоль": {},
}

func (b *AppointmentBot) handleGroupMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() && msg.Command() == "admin" {
		b.refreshChatAdmins(msg)
		return
	}

	if msg.Text != "" && containsRestrictedWord(msg.Text) {
		name := ""
		if msg.From != nil {
			name = msg.From.FirstName
		}
		b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("%s, соблюдайте порядок в чате!", name))
		b.deleteMessage(msg.Chat.ID, msg.MessageID)
	}
}

// refreshChatAdmins перечитывает администраторов группы.
// Новый список полностью заменяет прежний.
func (b *AppointmentBot) refreshChatAdmins(msg *tgbotapi.Message) {
	admins, err := b.botAPI.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: msg.Chat.ID},
	})
	if err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Ошибка получения администраторов чата")
		return
	}

	requesterIsAdmin := false
	b.mu.Lock()
	b.chatAdmins = make(map[int64]struct{}, len(admins))
	for _, member := range admins {
		if member.Status != "creator" && member.Status != "administrator" {
			continue
		}
		b.chatAdmins[member.User.ID] = struct{}{}
		if msg.From != nil && member.User.ID == msg.From.ID {
			requesterIsAdmin = true
		}
	}
	b.mu.Unlock()

	log.Info().Int64("chat_id", msg.Chat.ID).Int("admins", len(admins)).Msg("Список администраторов обновлен")

	if requesterIsAdmin {
		b.deleteMessage(msg.Chat.ID, msg.MessageID)
	}
}

// cleanText убирает пунктуацию - ловим замаскированные слова вида "к,о,з,е,л".
func cleanText(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, text)
}

func containsRestrictedWord(text string) bool {
	for _, word := range strings.Fields(strings.ToLower(cleanText(text))) {
		if _, ok := restrictedWords[word]; ok {
			return true
		}
	}
	return false
}

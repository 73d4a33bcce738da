package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"appointment-bot/internal/storage"
)

const adminBtnBanner = "Добавить/Изменить баннер"

// isAdmin пропускает админа из конфига и админов групповых чатов,
// собранных командой /admin в группе.
func (b *AppointmentBot) isAdmin(userID int64) bool {
	if b.adminID != 0 && userID == b.adminID {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.chatAdmins[userID]
	return ok
}

func (b *AppointmentBot) awaitingBanner(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitBanner[userID]
}

func (b *AppointmentBot) setAwaitBanner(userID int64, awaiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if awaiting {
		b.awaitBanner[userID] = true
	} else {
		delete(b.awaitBanner, userID)
	}
}

func (b *AppointmentBot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.From == nil || !b.isAdmin(msg.From.ID) {
		b.sendText(ctx, chatID, "Команда доступна только администратору.")
		return
	}

	reply := tgbotapi.NewMessage(chatID, "Что хотите сделать?")
	reply.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(adminBtnBanner),
		),
	)
	b.send(ctx, reply)
}

// handleAddBanner переводит админа в режим ожидания фото баннера.
func (b *AppointmentBot) handleAddBanner(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.From == nil || !b.isAdmin(msg.From.ID) {
		b.handleDialogTurn(ctx, msg)
		return
	}

	names, err := b.bannerNames(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка загрузки списка баннеров")
		b.sendText(ctx, chatID, "⚠️ Ошибка системы. Попробуйте позже.")
		return
	}

	b.setAwaitBanner(msg.From.ID, true)
	b.sendText(ctx, chatID, fmt.Sprintf(
		"Отправьте фото баннера.\nВ описании укажите для какой страницы:\n%s",
		strings.Join(names, ", ")))
}

func (b *AppointmentBot) handleBannerUpload(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if (msg.IsCommand() && msg.Command() == "cancel") || strings.EqualFold(msg.Text, "отмена") {
		b.setAwaitBanner(userID, false)
		b.sendText(ctx, chatID, "Операция отменена. Вы можете вернуться к администраторским командам.")
		return
	}

	if len(msg.Photo) == 0 {
		b.sendText(ctx, chatID, "Отправьте фото баннера или отмена")
		return
	}

	// Telegram отдает варианты фото по возрастанию размера; берем самый крупный.
	imageID := msg.Photo[len(msg.Photo)-1].FileID
	forPage := strings.TrimSpace(msg.Caption)

	err := b.storage.SetBannerImage(ctx, forPage, imageID)
	if errors.Is(err, storage.ErrNotFound) {
		names, namesErr := b.bannerNames(ctx)
		if namesErr != nil {
			log.Error().Err(namesErr).Msg("Ошибка загрузки списка баннеров")
		}
		b.sendText(ctx, chatID, fmt.Sprintf(
			"Введите нормальное название страницы, например:\n%s",
			strings.Join(names, ", ")))
		return
	}
	if err != nil {
		log.Error().Err(err).Str("page", forPage).Msg("Ошибка сохранения баннера")
		b.sendText(ctx, chatID, "⚠️ Ошибка системы. Попробуйте позже.")
		return
	}

	b.setAwaitBanner(userID, false)
	log.Info().Str("page", forPage).Int64("admin_id", userID).Msg("Баннер обновлен")
	b.sendText(ctx, chatID, "Баннер добавлен/изменен.")
}

func (b *AppointmentBot) bannerNames(ctx context.Context) ([]string, error) {
	banners, err := b.storage.Banners(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(banners))
	for _, banner := range banners {
		names = append(names, banner.Name)
	}
	return names, nil
}

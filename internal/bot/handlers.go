package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"appointment-bot/internal/storage"
)

const (
	callbackMakeAppointment = "make_appoint"
	callbackViewBookings    = "view_app"
	callbackPagePrefix      = "page_"
)

func (b *AppointmentBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		b.handleGroupMessage(ctx, msg)
		return
	}
	if !msg.Chat.IsPrivate() {
		return
	}

	chatID := msg.Chat.ID

	// Админ в процессе загрузки баннера
	if msg.From != nil && b.awaitingBanner(msg.From.ID) {
		b.handleBannerUpload(ctx, msg)
		return
	}

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.sendMainMenu(ctx, chatID)

	case msg.IsCommand() && msg.Command() == "admin":
		b.handleAdminCommand(ctx, msg)

	case msg.IsCommand() && msg.Command() == "cancel",
		strings.EqualFold(msg.Text, "отмена"):
		b.sendText(ctx, chatID, b.dialogs.Cancel(chatID))
		b.sendMainMenu(ctx, chatID)

	case msg.Text == adminBtnBanner:
		b.handleAddBanner(ctx, msg)

	default:
		b.handleDialogTurn(ctx, msg)
	}
}

// handleDialogTurn передает реплику машине состояний и отправляет ее ответы.
func (b *AppointmentBot) handleDialogTurn(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if b.dialogs.Idle(chatID) {
		b.sendText(ctx, chatID, "Я не понимаю эту команду. Используйте кнопки меню или /start.")
		return
	}

	replies, err := b.dialogs.HandleInput(ctx, chatID, msg.Text)
	if err != nil {
		// Состояние диалога не тронуто, ход можно повторить.
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Ошибка обработки реплики")
		b.sendText(ctx, chatID, "⚠️ Ошибка системы. Попробуйте позже.")
		return
	}

	for _, reply := range replies {
		b.sendText(ctx, chatID, reply)
	}

	// Завершенный диалог возвращает пользователя в главное меню.
	if b.dialogs.Idle(chatID) {
		b.sendMainMenu(ctx, chatID)
	}
}

func (b *AppointmentBot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	if _, err := b.botAPI.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Error().Err(err).Msg("Ошибка ответа на callback")
	}

	switch {
	case query.Data == callbackMakeAppointment:
		b.sendText(ctx, chatID, b.dialogs.StartBooking(chatID))

	case query.Data == callbackViewBookings:
		b.sendText(ctx, chatID, b.dialogs.StartLookup(chatID))

	case strings.HasPrefix(query.Data, callbackPagePrefix):
		b.sendBannerPage(ctx, chatID, strings.TrimPrefix(query.Data, callbackPagePrefix))

	default:
		log.Debug().Str("data", query.Data).Msg("Неизвестный callback")
	}
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Записаться на прием ✐", callbackMakeAppointment),
			tgbotapi.NewInlineKeyboardButtonData("О нас ✋", callbackPagePrefix+"about"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Получить список 📝", callbackViewBookings),
		),
	)
}

// sendMainMenu показывает баннер главной страницы с кнопками действий.
func (b *AppointmentBot) sendMainMenu(ctx context.Context, chatID int64) {
	b.sendBanner(ctx, chatID, "main", mainMenuKeyboard())
}

func (b *AppointmentBot) sendBannerPage(ctx context.Context, chatID int64, page string) {
	b.sendBanner(ctx, chatID, page, mainMenuKeyboard())
}

func (b *AppointmentBot) sendBanner(ctx context.Context, chatID int64, page string, keyboard tgbotapi.InlineKeyboardMarkup) {
	banner, err := b.storage.Banner(ctx, page)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error().Err(err).Str("page", page).Msg("Ошибка загрузки баннера")
		}
		msg := tgbotapi.NewMessage(chatID, "Выберите действие:")
		msg.ReplyMarkup = keyboard
		b.send(ctx, msg)
		return
	}

	if banner.Image != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(banner.Image))
		photo.Caption = banner.Description
		photo.ReplyMarkup = keyboard
		b.send(ctx, photo)
		return
	}

	msg := tgbotapi.NewMessage(chatID, banner.Description)
	msg.ReplyMarkup = keyboard
	b.send(ctx, msg)
}

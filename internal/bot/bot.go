package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"appointment-bot/config"
	"appointment-bot/internal/dialog"
	"appointment-bot/internal/services"
	"appointment-bot/internal/storage"
)

type AppointmentBot struct {
	botAPI  *tgbotapi.BotAPI
	storage storage.Storage
	dialogs *dialog.Manager
	limiter *rate.Limiter
	adminID int64

	mu          sync.Mutex
	chatAdmins  map[int64]struct{} // админы, подтянутые из групповых чатов
	awaitBanner map[int64]bool     // админы, от которых ждем фото баннера
}

func New(cfg *config.Config, store storage.Storage, schedule *services.ScheduleService) (*AppointmentBot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	return &AppointmentBot{
		botAPI:  botAPI,
		storage: store,
		dialogs: dialog.NewManager(store, schedule),
		// Telegram пропускает около 30 сообщений в секунду на бота.
		limiter:     rate.NewLimiter(rate.Limit(25), 5),
		adminID:     cfg.AdminID,
		chatAdmins:  make(map[int64]struct{}),
		awaitBanner: make(map[int64]bool),
	}, nil
}

func (b *AppointmentBot) Start(ctx context.Context) {
	log.Info().Str("username", b.botAPI.Self.UserName).Msg("Бот авторизован")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				b.handleCallbackQuery(ctx, update.CallbackQuery)
			}
		}
	}
}

func (b *AppointmentBot) send(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.botAPI.Send(c); err != nil {
		log.Error().Err(err).Msg("Ошибка отправки сообщения")
	}
}

func (b *AppointmentBot) sendText(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *AppointmentBot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.botAPI.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Ошибка удаления сообщения")
	}
}

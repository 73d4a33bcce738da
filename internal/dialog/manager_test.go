package dialog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appointment-bot/internal/models"
	"appointment-bot/internal/services"
	"appointment-bot/internal/storage"
)

// Даты в тестах из далекого будущего, чтобы не задевать проверки
// "не ранее сегодня" и "не менее чем через час".
const (
	testDate  = "15-06-2035"
	testDate2 = "20-07-2035"
)

func newTestManager(t *testing.T) (*Manager, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init(context.Background()))

	schedule := services.NewScheduleService(store, 9, 19)
	return NewManager(store, schedule), store
}

func send(t *testing.T, m *Manager, id int64, text string) []string {
	t.Helper()
	replies, err := m.HandleInput(context.Background(), id, text)
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	return replies
}

func TestBookingHappyPath(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 1

	assert.Equal(t, msgAskName, m.StartBooking(chat))
	assert.False(t, m.Idle(chat))

	assert.Equal(t, []string{msgAskPhone}, send(t, m, chat, "Анна"))
	assert.Equal(t, []string{msgAskDate}, send(t, m, chat, "8 926 123 45 67"))

	replies := send(t, m, chat, testDate)
	require.Contains(t, replies[0], "Выберите время:")
	assert.Contains(t, replies[0], "1. 09:00")
	assert.Contains(t, replies[0], "11. 19:00")

	replies = send(t, m, chat, "1")
	require.Contains(t, replies[0], "Проверьте правильность введенных данных")
	assert.Contains(t, replies[0], "Анна")
	assert.Contains(t, replies[0], "+7(926)123-45-67")
	assert.Contains(t, replies[0], testDate+" в 09:00")

	replies = send(t, m, chat, "да")
	assert.Equal(t, []string{"Ваша заявка принята на 15-06-2035 в 09:00."}, replies)
	assert.True(t, m.Idle(chat))

	bookings, err := store.BookingsByPhone(context.Background(), "+7(926)123-45-67")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Анна", bookings[0].Name)
	assert.Equal(t, testDate, bookings[0].Date)
	assert.Equal(t, "09:00", bookings[0].Time)
}

func TestBookingValidationReprompts(t *testing.T) {
	m, _ := newTestManager(t)
	const chat int64 = 2

	m.StartBooking(chat)
	send(t, m, chat, "Борис")

	// Кривой телефон - остаемся на этапе телефона.
	assert.Equal(t, []string{msgInvalidPhone}, send(t, m, chat, "12345"))
	assert.Equal(t, []string{msgAskDate}, send(t, m, chat, "8 903 000 11 22"))

	// Кривая дата и прошедшая дата - остаемся на этапе даты.
	assert.Equal(t, []string{msgInvalidDate}, send(t, m, chat, "2035-06-15"))
	assert.Equal(t, []string{msgPastDate}, send(t, m, chat, "01-01-2020"))

	replies := send(t, m, chat, testDate)
	require.Contains(t, replies[0], "Выберите время:")

	// Номера за границами списка из 11 слотов.
	assert.Equal(t, []string{msgInvalidIndex}, send(t, m, chat, "0"))
	assert.Equal(t, []string{msgInvalidIndex}, send(t, m, chat, "12"))
	assert.Equal(t, []string{msgInvalidIndex}, send(t, m, chat, "первый"))

	replies = send(t, m, chat, "2")
	require.Contains(t, replies[0], "10:00")

	// На подтверждении понимаем только 'да' и 'нет'.
	assert.Equal(t, []string{msgAskYesNo}, send(t, m, chat, "может быть"))
	assert.Equal(t, []string{msgCancelled}, send(t, m, chat, "НЕТ"))
	assert.True(t, m.Idle(chat))
}

func TestBookingDeclineLeavesNoRecord(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 3

	m.StartBooking(chat)
	send(t, m, chat, "Вера")
	send(t, m, chat, "8 916 555 66 77")
	send(t, m, chat, testDate)
	send(t, m, chat, "1")
	send(t, m, chat, "нет")

	bookings, err := store.BookingsByPhone(context.Background(), "+7(916)555-66-77")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestSlotTakenBetweenListingAndChoice(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 4

	m.StartBooking(chat)
	send(t, m, chat, "Анна")
	send(t, m, chat, "8 926 123 45 67")
	send(t, m, chat, testDate)

	// Пока пользователь думал, слот 09:00 заняли.
	require.NoError(t, store.CreateBooking(context.Background(), &models.Booking{
		Phone: "+7(903)000-11-22", Date: testDate, Time: "09:00",
	}))

	// Список пересчитывается, номер 1 теперь 10:00.
	replies := send(t, m, chat, "1")
	require.Contains(t, replies[0], "10:00")
	assert.NotContains(t, replies[0], "09:00")
}

func TestSlotTakenAtCommit(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 5

	m.StartBooking(chat)
	send(t, m, chat, "Анна")
	send(t, m, chat, "8 926 123 45 67")
	send(t, m, chat, testDate)
	send(t, m, chat, "1") // 09:00, дошли до подтверждения

	// Второй пользователь успел подтвердить тот же слот раньше.
	require.NoError(t, store.CreateBooking(context.Background(), &models.Booking{
		Phone: "+7(903)000-11-22", Date: testDate, Time: "09:00",
	}))

	replies := send(t, m, chat, "да")
	assert.Equal(t, []string{msgSlotJustTaken}, replies)
	assert.False(t, m.Idle(chat))

	// Диалог вернулся к выбору даты; 09:00 в списке больше нет.
	replies = send(t, m, chat, testDate)
	require.Contains(t, replies[0], "Выберите время:")
	assert.NotContains(t, replies[0], "09:00")
	assert.Contains(t, replies[0], "1. 10:00")

	send(t, m, chat, "1")
	replies = send(t, m, chat, "да")
	assert.Equal(t, []string{"Ваша заявка принята на 15-06-2035 в 10:00."}, replies)

	bookings, err := store.BookingsByPhone(context.Background(), "+7(926)123-45-67")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "10:00", bookings[0].Time)
}

func TestLookupWithoutBookings(t *testing.T) {
	m, _ := newTestManager(t)
	const chat int64 = 6

	assert.Equal(t, msgAskLookupPhone, m.StartLookup(chat))
	replies := send(t, m, chat, "8 926 123 45 67")
	assert.Equal(t, []string{msgNoAppointments}, replies)
	assert.True(t, m.Idle(chat))
}

func seedTwoBookings(t *testing.T, store *storage.SQLiteStorage) (models.Booking, models.Booking) {
	t.Helper()
	first := models.Booking{Name: "Анна", Phone: "+7(926)123-45-67", Date: testDate, Time: "09:00"}
	second := models.Booking{Name: "Анна", Phone: "+7(926)123-45-67", Date: testDate2, Time: "12:00"}
	require.NoError(t, store.CreateBooking(context.Background(), &first))
	require.NoError(t, store.CreateBooking(context.Background(), &second))
	return first, second
}

func TestLookupEditUpdatesOnlyChosen(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 7
	first, second := seedTwoBookings(t, store)

	m.StartLookup(chat)
	replies := send(t, m, chat, "8 926 123 45 67")
	require.Contains(t, replies[0], "1. Запись на "+testDate+" в 09:00.")
	require.Contains(t, replies[0], "2. Запись на "+testDate2+" в 12:00.")

	assert.Equal(t, []string{"Пожалуйста, введите номер заявки, которую хотите изменить:"},
		send(t, m, chat, "1"))

	// Некорректные номера заявки переспрашиваются.
	assert.Equal(t, []string{msgInvalidAppt}, send(t, m, chat, "3"))
	assert.Equal(t, []string{"Пожалуйста, введите корректный номер заявки."}, send(t, m, chat, "первая"))

	assert.Equal(t, []string{msgAskNewDate}, send(t, m, chat, "1"))
	send(t, m, chat, "25-08-2035")
	send(t, m, chat, "3") // слот 11:00
	replies = send(t, m, chat, "да")
	assert.Equal(t, []string{"Ваша запись была изменена на 25-08-2035 в 11:00."}, replies)

	bookings, err := store.BookingsByPhone(context.Background(), "+7(926)123-45-67")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, first.ID, bookings[0].ID)
	assert.Equal(t, "25-08-2035", bookings[0].Date)
	assert.Equal(t, "11:00", bookings[0].Time)
	// Вторая заявка не тронута.
	assert.Equal(t, second.ID, bookings[1].ID)
	assert.Equal(t, testDate2, bookings[1].Date)
	assert.Equal(t, "12:00", bookings[1].Time)
}

func TestLookupDeleteRemovesOnlyChosen(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 8
	first, _ := seedTwoBookings(t, store)

	m.StartLookup(chat)
	send(t, m, chat, "8 926 123 45 67")
	assert.Equal(t, []string{"Пожалуйста, введите номер заявки, которую хотите удалить:"},
		send(t, m, chat, "2"))

	replies := send(t, m, chat, "2")
	assert.Equal(t, []string{"Ваша заявка была удалена."}, replies)
	assert.True(t, m.Idle(chat))

	bookings, err := store.BookingsByPhone(context.Background(), "+7(926)123-45-67")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, first.ID, bookings[0].ID)
}

func TestLookupActionValidation(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 9
	seedTwoBookings(t, store)

	m.StartLookup(chat)
	send(t, m, chat, "8 926 123 45 67")

	// Непонятный выбор действия - переспрос без смены этапа.
	assert.Equal(t, []string{msgInvalidAction}, send(t, m, chat, "5"))

	// "Оставить как есть" завершает диалог, ничего не меняя.
	assert.Equal(t, []string{"Хорошо, оставляем как есть."}, send(t, m, chat, "3"))
	assert.True(t, m.Idle(chat))

	bookings, err := store.BookingsByPhone(context.Background(), "+7(926)123-45-67")
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestCancelMidFlow(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 10

	m.StartBooking(chat)
	send(t, m, chat, "Анна")
	send(t, m, chat, "8 926 123 45 67")

	assert.Equal(t, "Операция отменена.", m.Cancel(chat))
	assert.True(t, m.Idle(chat))

	bookings, err := store.BookingsByPhone(context.Background(), "+7(926)123-45-67")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestConversationsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t)

	m.StartBooking(11)
	m.StartLookup(12)

	// Реплика одного чата не влияет на этап другого.
	assert.Equal(t, []string{msgAskPhone}, send(t, m, 11, "Анна"))
	assert.Equal(t, []string{msgInvalidPhone}, send(t, m, 12, "Анна"))

	replies, err := m.HandleInput(context.Background(), 13, "привет")
	require.NoError(t, err)
	assert.Equal(t, []string{msgMenuHint}, replies)
}

func TestNoSlotsLeftOnDate(t *testing.T) {
	m, store := newTestManager(t)
	const chat int64 = 14

	// Занимаем все 11 слотов.
	schedule := services.NewScheduleService(store, 9, 19)
	for _, slot := range schedule.Slots() {
		require.NoError(t, store.CreateBooking(context.Background(), &models.Booking{
			Phone: "+7(903)000-11-22", Date: testDate, Time: slot,
		}))
	}

	m.StartBooking(chat)
	send(t, m, chat, "Анна")
	send(t, m, chat, "8 926 123 45 67")

	replies := send(t, m, chat, testDate)
	assert.Equal(t, []string{msgNoFreeSlots}, replies)
	assert.False(t, m.Idle(chat))

	// Другая дата свободна.
	replies = send(t, m, chat, testDate2)
	assert.True(t, strings.Contains(replies[0], "Выберите время:"))
}

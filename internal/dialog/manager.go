package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"appointment-bot/internal/models"
	"appointment-bot/internal/services"
	"appointment-bot/internal/storage"
)

const (
	msgAskName        = "Пожалуйста, введите ваше имя:"
	msgAskPhone       = "Пожалуйста, введите ваш телефон:"
	msgAskLookupPhone = "Пожалуйста, введите ваш номер телефона:"
	msgInvalidPhone   = "Неверный номер телефона. Введите номер из 10 цифр, например: 8 926 123 45 67."
	msgAskDate        = "Пожалуйста, введите желаемую дату в формате 'ДД-ММ-ГГГГ':"
	msgAskNewDate     = "Пожалуйста, введите новую дату в формате 'ДД-ММ-ГГГГ':"
	msgInvalidDate    = "Неверный формат даты. Пожалуйста, используйте формат 'ДД-ММ-ГГГГ'."
	msgPastDate       = "Пожалуйста, введите корректное число (не ранее сегодняшнего дня)."
	msgNoFreeSlots    = "К сожалению, на выбранную дату записи нет. Попробуйте другую дату."
	msgInvalidIndex   = "Некорректный номер. Пожалуйста, введите номер, соответствующий времени."
	msgTooSoon        = "Выберите время, которое будет не менее чем через 1 час от текущего времени."
	msgSlotBusy       = "К сожалению, на это время записи нет. Пожалуйста, выберите другое время."
	msgSlotJustTaken  = "К сожалению, это время только что заняли. Пожалуйста, введите другую дату в формате 'ДД-ММ-ГГГГ':"
	msgAskYesNo       = "Пожалуйста, ответьте 'да' или 'нет'."
	msgCancelled      = "Операция отменена. Вы можете ввести данные заново."
	msgNoAppointments = "У вас нет активных заявок."
	msgInvalidAppt    = "Некорректный номер заявки."
	msgUpdateFailed   = "Произошла ошибка при изменении вашей записи."
	msgMenuHint       = "Я не понимаю эту команду. Используйте кнопки меню."
	msgInvalidAction  = "Некорректный ввод. Пожалуйста, выберите 1 для изменения даты и времени, " +
		"2 для удаления заявки или 3, если заявку не надо менять."
)

// Manager ведет диалоги: хранит состояние каждого чата и обрабатывает реплики.
// Один чат - один диалог; между чатами состояние не пересекается.
type Manager struct {
	store    storage.Storage
	schedule *services.ScheduleService
	states   *stateMap
}

func NewManager(store storage.Storage, schedule *services.ScheduleService) *Manager {
	return &Manager{
		store:    store,
		schedule: schedule,
		states:   newStateMap(),
	}
}

// StartBooking начинает сбор данных для новой заявки.
func (m *Manager) StartBooking(id int64) string {
	m.states.set(id, &State{Stage: StageName, OperationType: OperationAdd})
	return msgAskName
}

// StartLookup начинает просмотр существующих заявок.
func (m *Manager) StartLookup(id int64) string {
	m.states.set(id, &State{Stage: StageLookupPhone})
	return msgAskLookupPhone
}

// Cancel сбрасывает диалог на любом этапе. До подтверждения ничего не
// записывается, поэтому откатывать нечего.
func (m *Manager) Cancel(id int64) string {
	m.states.clear(id)
	return "Операция отменена."
}

// Idle сообщает, ведется ли сейчас диалог с чатом.
func (m *Manager) Idle(id int64) bool {
	st, ok := m.states.get(id)
	return !ok || st.Stage == StageIdle
}

// HandleInput обрабатывает одну реплику пользователя и возвращает ответы.
// Ошибки валидации разрешаются внутри: переспрос без смены этапа и без потери
// уже собранных данных. Наружу уходят только отказы хранилища - состояние
// диалога при этом не меняется, и ход можно безопасно повторить.
func (m *Manager) HandleInput(ctx context.Context, id int64, text string) ([]string, error) {
	st, ok := m.states.get(id)
	if !ok {
		return []string{msgMenuHint}, nil
	}
	text = strings.TrimSpace(text)

	switch st.Stage {
	case StageName:
		return m.handleName(st, text), nil
	case StagePhone:
		return m.handlePhone(st, text), nil
	case StageDate:
		return m.handleDate(ctx, st, text)
	case StageTime:
		return m.handleTime(ctx, st, text)
	case StageConfirm:
		return m.handleConfirm(ctx, id, st, text)
	case StageLookupPhone:
		return m.handleLookupPhone(ctx, id, st, text)
	case StageLookupAction:
		return m.handleLookupAction(id, st, text), nil
	case StageChangeTarget:
		return m.handleChangeTarget(st, text), nil
	case StageDeleteTarget:
		return m.handleDeleteTarget(ctx, id, st, text)
	default:
		return []string{msgMenuHint}, nil
	}
}

func (m *Manager) handleName(st *State, text string) []string {
	if text == "" {
		return []string{msgAskName}
	}
	st.Name = text
	st.Stage = StagePhone
	return []string{msgAskPhone}
}

func (m *Manager) handlePhone(st *State, text string) []string {
	phone, err := FormatPhoneNumber(text)
	if err != nil {
		return []string{msgInvalidPhone}
	}
	st.Phone = phone
	if st.OperationType == "" {
		st.OperationType = OperationAdd
	}
	st.Stage = StageDate
	return []string{msgAskDate}
}

func (m *Manager) handleDate(ctx context.Context, st *State, text string) ([]string, error) {
	if _, err := m.schedule.ParseDate(text); err != nil {
		if errors.Is(err, services.ErrPastDate) {
			return []string{msgPastDate}, nil
		}
		return []string{msgInvalidDate}, nil
	}

	free, err := m.schedule.FreeSlots(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("свободные слоты: %w", err)
	}
	if len(free) == 0 {
		return []string{msgNoFreeSlots}, nil
	}

	st.SelectedDate = text
	st.Stage = StageTime
	return []string{"Выберите время:\n" + numberedList(free)}, nil
}

func (m *Manager) handleTime(ctx context.Context, st *State, text string) ([]string, error) {
	index, err := strconv.Atoi(text)
	if err != nil {
		return []string{msgInvalidIndex}, nil
	}

	// Список слотов пересчитывается заново: с момента показа он мог устареть.
	free, err := m.schedule.FreeSlots(ctx, st.SelectedDate)
	if err != nil {
		return nil, fmt.Errorf("свободные слоты: %w", err)
	}
	if index < 1 || index > len(free) {
		return []string{msgInvalidIndex}, nil
	}
	slot := free[index-1]

	if err := m.schedule.CheckLeadTime(st.SelectedDate, slot); err != nil {
		return []string{msgTooSoon}, nil
	}

	// Контрольная проверка занятости, независимая от расчета свободных слотов.
	booked, err := m.schedule.BookedTimes(ctx, st.SelectedDate)
	if err != nil {
		return nil, fmt.Errorf("занятые слоты: %w", err)
	}
	if _, taken := booked[slot]; taken {
		return []string{msgSlotBusy}, nil
	}

	st.SelectedTime = slot
	st.Stage = StageConfirm
	return []string{fmt.Sprintf(
		"Проверьте правильность введенных данных:\nИмя: %s\nТелефон: %s\n"+
			"\nДата и время записи %s в %s.\n"+
			"Если данные правильные, напишите 'да', если нет - 'нет'.",
		st.Name, st.Phone, st.SelectedDate, st.SelectedTime)}, nil
}

func (m *Manager) handleConfirm(ctx context.Context, id int64, st *State, text string) ([]string, error) {
	switch strings.ToLower(text) {
	case "да":
		return m.commit(ctx, id, st)
	case "нет":
		m.states.clear(id)
		return []string{msgCancelled}, nil
	default:
		return []string{msgAskYesNo}, nil
	}
}

func (m *Manager) commit(ctx context.Context, id int64, st *State) ([]string, error) {
	if st.OperationType == OperationUpdate {
		err := m.store.UpdateBookingDateTime(ctx, st.AppointmentID, st.SelectedDate, st.SelectedTime)
		switch {
		case errors.Is(err, storage.ErrSlotTaken):
			// Гонку закрыл уникальный индекс; возвращаемся к выбору даты.
			st.Stage = StageDate
			return []string{msgSlotJustTaken}, nil
		case errors.Is(err, storage.ErrNotFound):
			log.Warn().Str("booking_id", st.AppointmentID).Msg("Изменяемая заявка уже не существует")
			m.states.clear(id)
			return []string{msgUpdateFailed}, nil
		case err != nil:
			return nil, fmt.Errorf("изменение заявки: %w", err)
		}

		log.Info().Str("booking_id", st.AppointmentID).
			Str("date", st.SelectedDate).Str("time", st.SelectedTime).
			Msg("Заявка изменена")
		m.states.clear(id)
		return []string{fmt.Sprintf("Ваша запись была изменена на %s в %s.",
			st.SelectedDate, st.SelectedTime)}, nil
	}

	booking := &models.Booking{
		Name:  st.Name,
		Phone: st.Phone,
		Date:  st.SelectedDate,
		Time:  st.SelectedTime,
	}
	err := m.store.CreateBooking(ctx, booking)
	if errors.Is(err, storage.ErrSlotTaken) {
		st.Stage = StageDate
		return []string{msgSlotJustTaken}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("создание заявки: %w", err)
	}

	log.Info().Str("booking_id", booking.ID).Str("phone", booking.Phone).
		Str("date", booking.Date).Str("time", booking.Time).
		Msg("Новая заявка")
	m.states.clear(id)
	return []string{fmt.Sprintf("Ваша заявка принята на %s в %s.",
		booking.Date, booking.Time)}, nil
}

func (m *Manager) handleLookupPhone(ctx context.Context, id int64, st *State, text string) ([]string, error) {
	phone, err := FormatPhoneNumber(text)
	if err != nil {
		return []string{msgInvalidPhone}, nil
	}

	appointments, err := m.store.BookingsByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("заявки по телефону: %w", err)
	}
	if len(appointments) == 0 {
		m.states.clear(id)
		return []string{msgNoAppointments}, nil
	}

	st.Phone = phone
	st.Name = appointments[len(appointments)-1].Name
	st.Appointments = appointments
	st.Stage = StageLookupAction

	lines := make([]string, 0, len(appointments))
	for i, appt := range appointments {
		lines = append(lines, fmt.Sprintf("%d. Запись на %s в %s.", i+1, appt.Date, appt.Time))
	}
	return []string{fmt.Sprintf(
		"Ваши заявки:\n%s\n\nВыберите действие:"+
			"\n1. Изменить заявку\n2. Удалить заявку\n3. Оставить как есть",
		strings.Join(lines, "\n"))}, nil
}

func (m *Manager) handleLookupAction(id int64, st *State, text string) []string {
	switch text {
	case "1":
		st.OperationType = OperationUpdate
		st.Stage = StageChangeTarget
		return []string{"Пожалуйста, введите номер заявки, которую хотите изменить:"}
	case "2":
		st.Stage = StageDeleteTarget
		return []string{"Пожалуйста, введите номер заявки, которую хотите удалить:"}
	case "3":
		m.states.clear(id)
		return []string{"Хорошо, оставляем как есть."}
	default:
		return []string{msgInvalidAction}
	}
}

func (m *Manager) handleChangeTarget(st *State, text string) []string {
	appointment, errMsg := chooseAppointment(st, text)
	if errMsg != "" {
		return []string{errMsg}
	}

	// Изменение привязывается к id выбранной заявки, а не к телефону:
	// на один номер может быть несколько записей.
	st.AppointmentID = appointment.ID
	st.Stage = StageDate
	return []string{msgAskNewDate}
}

func (m *Manager) handleDeleteTarget(ctx context.Context, id int64, st *State, text string) ([]string, error) {
	appointment, errMsg := chooseAppointment(st, text)
	if errMsg != "" {
		return []string{errMsg}, nil
	}

	err := m.store.DeleteBooking(ctx, appointment.ID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn().Str("booking_id", appointment.ID).Msg("Удаляемая заявка уже не существует")
		m.states.clear(id)
		return []string{"Заявка уже была удалена."}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("удаление заявки: %w", err)
	}

	log.Info().Str("booking_id", appointment.ID).Msg("Заявка удалена")
	m.states.clear(id)
	return []string{"Ваша заявка была удалена."}, nil
}

// chooseAppointment разбирает номер заявки из кэшированного списка.
// Возвращает текст переспроса, если номер некорректен.
func chooseAppointment(st *State, text string) (models.Booking, string) {
	index, err := strconv.Atoi(text)
	if err != nil {
		return models.Booking{}, "Пожалуйста, введите корректный номер заявки."
	}
	if index < 1 || index > len(st.Appointments) {
		return models.Booking{}, msgInvalidAppt
	}
	return st.Appointments[index-1], ""
}

func numberedList(items []string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DateLayout - канонический текстовый формат даты записи.
const DateLayout = "02-01-2006"

const timeLayout = "02-01-2006 15:04"

var (
	ErrInvalidDateFormat = errors.New("неверный формат даты")
	ErrPastDate          = errors.New("дата уже прошла")
	ErrTooSoon           = errors.New("до начала слота меньше часа")
)

// BookedTimesProvider отдает занятые слоты на дату.
type BookedTimesProvider interface {
	BookedTimes(ctx context.Context, date string) (map[string]struct{}, error)
}

// ScheduleService считает свободные и занятые часовые слоты.
// Источник истины о занятости - хранилище; сервис только читает.
type ScheduleService struct {
	store     BookedTimesProvider
	startHour int
	endHour   int
	now       func() time.Time
}

func NewScheduleService(store BookedTimesProvider, startHour, endHour int) *ScheduleService {
	return &ScheduleService{
		store:     store,
		startHour: startHour,
		endHour:   endHour,
		now:       time.Now,
	}
}

// Slots - полный набор слотов: часовые отметки с startHour по endHour включительно.
func (s *ScheduleService) Slots() []string {
	slots := make([]string, 0, s.endHour-s.startHour+1)
	for hour := s.startHour; hour <= s.endHour; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots
}

// ParseDate строго разбирает дату "ДД-ММ-ГГГГ" и отклоняет прошедшие дни.
func (s *ScheduleService) ParseDate(value string) (time.Time, error) {
	now := s.now()

	date, err := time.ParseInLocation(DateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return time.Time{}, ErrPastDate
	}

	return date, nil
}

// FreeSlots возвращает свободные слоты на дату по возрастанию времени.
func (s *ScheduleService) FreeSlots(ctx context.Context, date string) ([]string, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, ErrInvalidDateFormat
	}

	booked, err := s.store.BookedTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("занятые слоты: %w", err)
	}

	var free []string
	for _, slot := range s.Slots() {
		if _, taken := booked[slot]; !taken {
			free = append(free, slot)
		}
	}
	return free, nil
}

// BookedTimes - занятые слоты на дату; контрольная проверка перед подтверждением.
func (s *ScheduleService) BookedTimes(ctx context.Context, date string) (map[string]struct{}, error) {
	return s.store.BookedTimes(ctx, date)
}

// CheckLeadTime требует, чтобы до начала слота оставался минимум час.
// Ровно час до слота еще допустим.
func (s *ScheduleService) CheckLeadTime(date, slot string) error {
	now := s.now()

	slotTime, err := time.ParseInLocation(timeLayout, date+" "+slot, now.Location())
	if err != nil {
		return ErrInvalidDateFormat
	}

	if slotTime.Before(now.Add(time.Hour)) {
		return ErrTooSoon
	}
	return nil
}

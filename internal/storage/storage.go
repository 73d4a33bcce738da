package storage

import (
	"context"
	"errors"

	"appointment-bot/internal/models"
)

var (
	// ErrSlotTaken - пара (дата, время) уже занята другой записью.
	ErrSlotTaken = errors.New("слот уже занят")
	// ErrNotFound - запись с таким идентификатором не найдена.
	ErrNotFound = errors.New("запись не найдена")
)

type Storage interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	BookingsByPhone(ctx context.Context, phone string) ([]models.Booking, error)
	BookedTimes(ctx context.Context, date string) (map[string]struct{}, error)
	UpdateBookingDateTime(ctx context.Context, id, date, timeStr string) error
	DeleteBooking(ctx context.Context, id string) error

	SeedBanners(ctx context.Context, descriptions map[string]string) error
	SetBannerImage(ctx context.Context, name, image string) error
	Banner(ctx context.Context, name string) (*models.Banner, error)
	Banners(ctx context.Context) ([]models.Banner, error)

	Close() error
}

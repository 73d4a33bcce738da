package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"appointment-bot/internal/models"
)

type SQLiteStorage struct {
	db *sqlx.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие БД: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS bookings (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL DEFAULT '',
        phone TEXT NOT NULL DEFAULT '',
        date TEXT NOT NULL,
        time TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL,
        UNIQUE (date, time)
    );

    CREATE INDEX IF NOT EXISTS idx_bookings_phone ON bookings(phone);
    CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date);

    CREATE TABLE IF NOT EXISTS banners (
        name TEXT PRIMARY KEY,
        image TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT ''
    );
    `)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateBooking вставляет новую запись. Уникальный индекс (date, time) -
// последний рубеж против гонки между проверкой слота и подтверждением.
func (s *SQLiteStorage) CreateBooking(ctx context.Context, booking *models.Booking) error {
	booking.ID = uuid.New().String()
	booking.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO bookings (id, name, phone, date, time, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.Name,
		booking.Phone,
		booking.Date,
		booking.Time,
		booking.CreatedAt)
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}

	return err
}

func (s *SQLiteStorage) BookingsByPhone(ctx context.Context, phone string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings, `
	SELECT id, name, phone, date, time, created_at
	FROM bookings WHERE phone = ? ORDER BY rowid`, phone)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (s *SQLiteStorage) BookedTimes(ctx context.Context, date string) (map[string]struct{}, error) {
	var times []string
	err := s.db.SelectContext(ctx, &times,
		`SELECT time FROM bookings WHERE date = ?`, date)
	if err != nil {
		return nil, err
	}

	booked := make(map[string]struct{}, len(times))
	for _, t := range times {
		booked[t] = struct{}{}
	}
	return booked, nil
}

func (s *SQLiteStorage) UpdateBookingDateTime(ctx context.Context, id, date, timeStr string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET date = ?, time = ? WHERE id = ?`, date, timeStr, id)
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteBooking(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedBanners наполняет таблицу баннеров описаниями при первом запуске.
// Если баннеры уже есть, ничего не меняет.
func (s *SQLiteStorage) SeedBanners(ctx context.Context, descriptions map[string]string) error {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM banners`); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for name, description := range descriptions {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO banners (name, description) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING`, name, description)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) SetBannerImage(ctx context.Context, name, image string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE banners SET image = ? WHERE name = ?`, image, name)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) Banner(ctx context.Context, name string) (*models.Banner, error) {
	var banner models.Banner
	err := s.db.GetContext(ctx, &banner,
		`SELECT name, image, description FROM banners WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &banner, nil
}

func (s *SQLiteStorage) Banners(ctx context.Context) ([]models.Banner, error) {
	var banners []models.Banner
	err := s.db.SelectContext(ctx, &banners,
		`SELECT name, image, description FROM banners ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return banners, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

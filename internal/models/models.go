package models

import "time"

type Booking struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"` // Формат: "+7(XXX)XXX-XX-XX"
	Date      string    `db:"date"`  // Формат: "02-01-2006"
	Time      string    `db:"time"`  // Формат: "15:04"
	CreatedAt time.Time `db:"created_at"`
}

// Banner - информационная страница бота (картинка + описание).
type Banner struct {
	Name        string `db:"name"`
	Image       string `db:"image"` // file_id фото в Telegram
	Description string `db:"description"`
}

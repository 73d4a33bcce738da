package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BotToken string `envconfig:"TOKEN" required:"true"`
	AdminID  int64  `envconfig:"ADMIN_CHAT_ID"`
	DBPath   string `envconfig:"DB_PATH" default:"data/appointments.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Окно записи: часовые слоты с StartHour по EndHour включительно.
	StartHour int `envconfig:"SLOT_START_HOUR" default:"9"`
	EndHour   int `envconfig:"SLOT_END_HOUR" default:"19"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.StartHour < 0 || cfg.EndHour > 23 || cfg.StartHour > cfg.EndHour {
		return nil, fmt.Errorf("config: некорректное окно записи %d..%d", cfg.StartHour, cfg.EndHour)
	}

	return &cfg, nil
}

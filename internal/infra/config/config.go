package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config — параметры приложения: бот, локальная БД привязок, REST-бэкенд
// школы и настройки практики.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	TelegramBot struct {
		Token               string `yaml:"token"`
		Mode                string `yaml:"mode"` // "polling" или "webhook"
		WebhookURL          string `yaml:"webhook_url"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
		Debug               bool   `yaml:"debug"`
	} `yaml:"telegram_bot"`
	Database struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"dbname"`
	} `yaml:"database"`
	Backend struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"backend"`
	Practice struct {
		// Список предметов для экрана настройки: контракт бэкенда не даёт
		// операции перечисления предметов, поэтому перечень задаётся здесь.
		Subjects []string `yaml:"subjects"`
	} `yaml:"practice"`
}

// PollInterval возвращает интервал лонгпуллинга (по умолчанию 10 секунд).
func (c *Config) PollInterval() time.Duration {
	if c.TelegramBot.PollIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TelegramBot.PollIntervalSeconds) * time.Second
}

// BackendTimeout возвращает таймаут запросов к бэкенду (по умолчанию 15 секунд).
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// LoadConfig читает YAML-файл и накладывает секреты из окружения
// (.env подхватывается, если существует).
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			fmt.Println("f.Close() failed ", err)
		}
	}(f)

	config := &Config{}
	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, err
	}

	// Секреты из окружения имеют приоритет над файлом.
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.TelegramBot.Token = token
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if baseURL := os.Getenv("BACKEND_BASE_URL"); baseURL != "" {
		config.Backend.BaseURL = baseURL
	}

	if config.TelegramBot.Token == "" {
		return nil, fmt.Errorf("не задан токен бота (telegram_bot.token или TELEGRAM_BOT_TOKEN)")
	}
	if config.Backend.BaseURL == "" {
		return nil, fmt.Errorf("не задан адрес бэкенда (backend.base_url или BACKEND_BASE_URL)")
	}
	if config.TelegramBot.Mode == "" {
		config.TelegramBot.Mode = "polling"
	}

	return config, nil
}

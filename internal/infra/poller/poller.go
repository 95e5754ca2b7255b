package poller

import (
	"log"
	"net"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/infra/config"
)

// NewPoller создаёт Poller в зависимости от режима.
func NewPoller(cfg *config.Config) telebot.Poller {
	if cfg.TelegramBot.Mode == "webhook" {
		if cfg.TelegramBot.WebhookURL == "" {
			log.Fatalf("В режиме webhook переменная webhook_url должна быть задана")
		}
		return &telebot.Webhook{
			Listen: net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Endpoint: &telebot.WebhookEndpoint{
				PublicURL: cfg.TelegramBot.WebhookURL,
			},
		}
	}
	return &telebot.LongPoller{Timeout: cfg.PollInterval()}
}

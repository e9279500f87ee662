package bot

import (
	"context"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

type Config struct {
	Token        string        `yaml:"-"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

func New(cfg Config, client repo.Client, log logger.Logger) (*Bot, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.Token,
		Updates: 256,
		Poller: &telebot.LongPoller{
			Timeout: cfg.PollInterval,
		},
	})
	if err != nil {
		return nil, errors.WrapFail(err, "init telegram bot")
	}

	return &Bot{
		bot:  b,
		repo: client,
		log:  log.With("bot"),
	}, nil
}

// Bot is the Telegram command surface: status queries and alert
// subscription management.
type Bot struct {
	bot  *telebot.Bot
	ctx  context.Context
	repo repo.Client
	log  logger.Logger
}

// Telebot returns the underlying bot for wiring the notifier.
func (b *Bot) Telebot() *telebot.Bot {
	return b.bot
}

func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.setupHandlers()
	go b.bot.Start()
	return nil
}

func (b *Bot) Stop() {
	b.bot.Stop()
}

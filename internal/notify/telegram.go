package notify

import (
	"context"

	"gopkg.in/telebot.v3"

	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// sender is the slice of telebot.Bot the notifier needs.
type sender interface {
	Send(to telebot.Recipient, what any, opts ...any) (*telebot.Message, error)
}

// NewTelegram fans an alert out to every subscribed chat whose
// threshold the alert clears.
func NewTelegram(bot sender, subs repo.Subscribers, log logger.Logger) Notifier {
	return &telegramNotifier{
		bot:  bot,
		subs: subs,
		log:  log.With("telegram_notifier"),
	}
}

type telegramNotifier struct {
	bot  sender
	subs repo.Subscribers
	log  logger.Logger
}

func (n *telegramNotifier) Name() string { return "telegram" }

func (n *telegramNotifier) Notify(ctx context.Context, a repo.Alert) error {
	subs, err := n.subs.All(ctx)
	if err != nil {
		return errors.WrapFail(err, "list subscribers")
	}

	msg := Message(a)
	max := a.MaxProb()

	var errs []error
	for _, sub := range subs {
		if max < sub.Threshold {
			continue
		}

		_, err := n.bot.Send(
			telebot.ChatID(sub.ChatID),
			msg,
			&telebot.SendOptions{ParseMode: telebot.ModeMarkdown},
		)
		if err != nil {
			errs = append(errs, errors.WrapFailf(err, "notify chat %d", sub.ChatID))
		}
	}

	return errors.Collapse(errs)
}

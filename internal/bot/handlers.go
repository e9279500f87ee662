package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vitaliy-ukiru/fsm-telebot"
	"github.com/vitaliy-ukiru/fsm-telebot/storages/memory"
	"gopkg.in/telebot.v3"

	"github.com/agidash/agidash/internal/alert"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/errors"
)

const (
	initialState = fsm.DefaultState

	subscribeReadThresholdState fsm.State = "subReadThreshold"
)

const usage = "Available commands:\n" +
	"/status — current cascade status\n" +
	"/indices — latest daily index values\n" +
	"/subscribe — receive alert notifications in this chat\n" +
	"/unsubscribe — stop receiving notifications\n"

func (b *Bot) setupHandlers() {
	manager := fsm.NewManager(
		b.bot,
		nil,
		memory.NewStorage(),
		nil,
	)

	manager.Bind("/start", fsm.AnyState, b.start)
	manager.Bind(telebot.OnText, initialState, b.start)

	manager.Bind("/status", fsm.AnyState, b.status)
	manager.Bind("/indices", fsm.AnyState, b.indices)

	manager.Bind("/subscribe", initialState, b.startSubscribe)
	manager.Bind(telebot.OnText, subscribeReadThresholdState, b.subscribe)

	manager.Bind("/unsubscribe", initialState, b.unsubscribe)
}

func (b *Bot) setState(s fsm.Context, target fsm.State) {
	err := s.Set(target)
	if err != nil {
		b.log.Warn(errors.WrapFailf(err, "set state to %q", target))
	}
}

func (b *Bot) final(c telebot.Context, s fsm.Context, msg string, opts ...any) error {
	b.setState(s, initialState)
	return c.Send(msg, opts...)
}

func (b *Bot) fail(c telebot.Context, s fsm.Context, err error) error {
	b.log.Error(err)
	return b.final(c, s, "Something went wrong")
}

func (b *Bot) start(c telebot.Context, s fsm.Context) error {
	return b.final(c, s, usage)
}

func (b *Bot) status(c telebot.Context, s fsm.Context) error {
	alerts, err := b.repo.Alerts().Recent(b.ctx, 1)
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "load latest alert row"))
	}

	if len(alerts) == 0 {
		return b.final(c, s, "No detection runs yet")
	}

	return b.final(c, s, statusMessage(alerts[0]))
}

func (b *Bot) indices(c telebot.Context, s fsm.Context) error {
	points, err := b.repo.Indices().Window(b.ctx, 1)
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "load latest index row"))
	}

	if len(points) == 0 {
		return b.final(c, s, "No index data yet")
	}

	p := points[len(points)-1]
	msg := fmt.Sprintf(
		"Indices for %s (z-scores):\n"+
			"- Capability: %.2f\n"+
			"- Attention: %.2f\n"+
			"- Market: %.2f\n"+
			"- Regulatory: %.2f",
		p.Date, p.Capability, p.Attention, p.Market, p.Regulatory,
	)

	return b.final(c, s, msg)
}

func (b *Bot) startSubscribe(c telebot.Context, s fsm.Context) error {
	b.setState(s, subscribeReadThresholdState)
	return c.Send(fmt.Sprintf(
		"Send the alert threshold for this chat (0..1), or \"default\" for %.1f",
		alert.Level,
	))
}

func (b *Bot) subscribe(c telebot.Context, s fsm.Context) error {
	threshold, err := parseThreshold(c.Text())
	if err != nil {
		return b.final(c, s, "That is not a valid threshold, try /subscribe again")
	}

	chat := c.Chat()
	if chat == nil {
		return b.fail(c, s, errors.Fail("get chat"))
	}

	err = b.repo.Subscribers().Upsert(b.ctx, repo.Subscriber{
		ChatID:    chat.ID,
		Threshold: threshold,
	})
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "store subscription"))
	}

	return b.final(c, s, fmt.Sprintf("Subscribed with threshold %.2f", threshold))
}

func (b *Bot) unsubscribe(c telebot.Context, s fsm.Context) error {
	chat := c.Chat()
	if chat == nil {
		return b.fail(c, s, errors.Fail("get chat"))
	}

	deleted, err := b.repo.Subscribers().Delete(b.ctx, chat.ID)
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "delete subscription"))
	}

	if !deleted {
		return b.final(c, s, "This chat was not subscribed")
	}

	return b.final(c, s, "Unsubscribed")
}

func statusMessage(a repo.Alert) string {
	state := "NORMAL"
	switch {
	case a.Alert:
		state = "ALERT"
	case a.MaxProb() >= 0.3:
		state = "WARNING"
	}

	return fmt.Sprintf(
		"%s as of %s\n"+
			"Changepoint probabilities:\n"+
			"- Capability: %.2f\n"+
			"- Attention: %.2f\n"+
			"- Market: %.2f\n"+
			"- Regulatory: %.2f",
		state, a.Date, a.CapabilityProb, a.AttentionProb, a.MarketProb, a.RegulatoryProb,
	)
}

func parseThreshold(text string) (float64, error) {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" || text == "default" {
		return alert.Level, nil
	}

	threshold, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.WrapFail(err, "parse threshold")
	}

	if threshold <= 0 || threshold > 1 {
		return 0, errors.Failf("accept threshold %v out of (0, 1]", threshold)
	}

	return threshold, nil
}

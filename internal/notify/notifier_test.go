package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/logger"
)

func Test_Message(t *testing.T) {
	msg := Message(repo.Alert{
		Date:           "2026-08-29",
		CapabilityProb: 0.62,
		AttentionProb:  0.1,
		MarketProb:     0.305,
		RegulatoryProb: 0,
		Alert:          true,
	})

	require.Contains(t, msg, "Date: 2026-08-29")
	require.Contains(t, msg, "- Capability: 0.62")
	require.Contains(t, msg, "- Attention: 0.10")
	require.Contains(t, msg, "- Market: 0.30")
	require.Contains(t, msg, "- Regulatory: 0.00")
}

type fakeSender struct {
	sent []telebot.Recipient
	err  error
}

func (f *fakeSender) Send(to telebot.Recipient, what any, opts ...any) (*telebot.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, to)
	return &telebot.Message{}, nil
}

func Test_Telegram_thresholds(t *testing.T) {
	client := repo.NewMemory()
	ctx := context.Background()

	require.NoError(t, client.Subscribers().Upsert(ctx, repo.Subscriber{ChatID: 1, Threshold: 0.5}))
	require.NoError(t, client.Subscribers().Upsert(ctx, repo.Subscriber{ChatID: 2, Threshold: 0.9}))

	bot := &fakeSender{}
	n := NewTelegram(bot, client.Subscribers(), logger.NewStub())

	err := n.Notify(ctx, repo.Alert{Date: "2026-08-29", MarketProb: 0.7, Alert: true})
	require.NoError(t, err)

	// only the 0.5-threshold chat is notified
	require.Equal(t, []telebot.Recipient{telebot.ChatID(1)}, bot.sent)
}

func Test_Telegram_noSubscribers(t *testing.T) {
	client := repo.NewMemory()

	bot := &fakeSender{}
	n := NewTelegram(bot, client.Subscribers(), logger.NewStub())

	err := n.Notify(context.Background(), repo.Alert{Date: "2026-08-29", Alert: true})
	require.NoError(t, err)
	require.Empty(t, bot.sent)
}

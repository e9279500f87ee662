package notify

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// NewSlack posts alerts to a Slack incoming webhook.
func NewSlack(webhookURL string, log logger.Logger) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		log:        log.With("slack_notifier"),
	}
}

type slackNotifier struct {
	webhookURL string
	log        logger.Logger
}

func (n *slackNotifier) Name() string { return "slack" }

func (n *slackNotifier) Notify(ctx context.Context, a repo.Alert) error {
	msg := Message(a)

	err := slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{
		Text: msg,
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject(slack.MarkdownType, msg, false, false),
					nil, nil,
				),
			},
		},
	})

	return errors.WrapFail(err, "post slack webhook")
}

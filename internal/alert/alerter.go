package alert

import (
	"context"

	"github.com/agidash/agidash/internal/detect"
	"github.com/agidash/agidash/internal/notify"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// Level is the changepoint probability at which an alert fires.
const Level = 0.5

func New(alerts repo.Alerts, bus broadcaster, log logger.Logger, notifiers ...notify.Notifier) *Alerter {
	return &Alerter{
		alerts:    alerts,
		notifiers: notifiers,
		bus:       bus,
		level:     Level,
		log:       log.With("alerter"),
	}
}

// Alerter turns a detection result into a persisted alert row and,
// when the alert level is crossed, fans it out. A row is written for
// every run, alerting or not.
type Alerter struct {
	alerts    repo.Alerts
	notifiers []notify.Notifier
	bus       broadcaster
	level     float64
	log       logger.Logger
}

func (a *Alerter) Process(ctx context.Context, res detect.Result) (repo.Alert, error) {
	row := buildRow(res, a.level)

	err := a.alerts.Upsert(ctx, row)
	if err != nil {
		return repo.Alert{}, errors.WrapFail(err, "store alert row")
	}

	if !row.Alert {
		return row, nil
	}

	a.log.Infof("alert fired for %s", row.Date)

	for _, n := range a.notifiers {
		err := n.Notify(ctx, row)
		if err != nil {
			a.log.Error(errors.WrapFailf(err, "notify via %q", n.Name()))
		}
	}

	if a.bus != nil {
		err := a.bus.Broadcast(ctx, row.Date, row)
		if err != nil {
			a.log.Error(errors.WrapFail(err, "broadcast alert event"))
		}
	}

	return row, nil
}

func buildRow(res detect.Result, level float64) repo.Alert {
	row := repo.Alert{
		Date:           res.Date,
		CapabilityProb: res.Probs[detect.IndexCapability],
		AttentionProb:  res.Probs[detect.IndexAttention],
		MarketProb:     res.Probs[detect.IndexMarket],
		RegulatoryProb: res.Probs[detect.IndexRegulatory],
	}
	row.Alert = row.MaxProb() >= level

	return row
}

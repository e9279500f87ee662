package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agidash/agidash/internal/repo"
)

// Notifier delivers an alert to one channel. Implementations must
// tolerate repeated delivery of the same date.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a repo.Alert) error
}

// Message renders the alert the way it is posted to every channel.
func Message(a repo.Alert) string {
	probs := map[string]float64{
		"Capability": a.CapabilityProb,
		"Attention":  a.AttentionProb,
		"Market":     a.MarketProb,
		"Regulatory": a.RegulatoryProb,
	}

	names := make([]string, 0, len(probs))
	for name := range probs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("*AGI-Perception Cascade Alert* ⚠️\n\n")
	fmt.Fprintf(&b, "Date: %s\n\n", a.Date)
	b.WriteString("Changepoint probabilities:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %.2f\n", name, probs[name])
	}

	return b.String()
}

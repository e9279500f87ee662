package repo

// DateLayout is the day granularity used in both collections.
const DateLayout = "2006-01-02"

// IndexPoint is one row of the daily composite index, z-scored
// against the trailing window at write time.
type IndexPoint struct {
	Date       string  `bson:"date" json:"date"`
	Capability float64 `bson:"capability" json:"capability"`
	Attention  float64 `bson:"attention" json:"attention"`
	Market     float64 `bson:"market" json:"market"`
	Regulatory float64 `bson:"regulatory" json:"regulatory"`
}

// Alert is one detection run outcome. A row is written for every
// run; Alert marks whether any probability crossed the alert level.
type Alert struct {
	Date           string  `bson:"date" json:"date"`
	CapabilityProb float64 `bson:"capability_prob" json:"capability_prob"`
	AttentionProb  float64 `bson:"attention_prob" json:"attention_prob"`
	MarketProb     float64 `bson:"market_prob" json:"market_prob"`
	RegulatoryProb float64 `bson:"regulatory_prob" json:"regulatory_prob"`
	Alert          bool    `bson:"alert" json:"alert"`
}

// MaxProb returns the largest of the four probabilities.
func (a Alert) MaxProb() float64 {
	m := a.CapabilityProb
	for _, p := range [...]float64{a.AttentionProb, a.MarketProb, a.RegulatoryProb} {
		if p > m {
			m = p
		}
	}
	return m
}

// Subscriber is a Telegram chat receiving alert notifications.
type Subscriber struct {
	ChatID    int64   `bson:"chat_id" json:"chat_id"`
	Threshold float64 `bson:"threshold" json:"threshold"`
}

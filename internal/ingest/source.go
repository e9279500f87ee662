package ingest

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Source names, also used as staging subdirectories.
const (
	SourceCapability  = "capability"
	SourceTrends      = "trends"
	SourceLegislation = "legislation"
	SourceNews        = "news"
	SourceMarkets     = "markets"
)

// Snapshot is one day's reading of a single source.
type Snapshot struct {
	Source string             `json:"source"`
	Date   string             `json:"date"`
	Score  float64            `json:"score"`
	Series map[string]float64 `json:"series,omitempty"`
}

type Source interface {
	Name() string
	Fetch(ctx context.Context) (Snapshot, error)
}

type Config struct {
	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	RetryWaitTime time.Duration `yaml:"retryWait"`

	Trends      TrendsConfig      `yaml:"trends"`
	Legislation LegislationConfig `yaml:"legislation"`
	News        NewsConfig        `yaml:"news"`
	Markets     MarketsConfig     `yaml:"markets"`
}

// newHTTPClient builds the shared outbound client. Every source
// retries transient failures with a fixed wait and a bounded
// attempt count.
func newHTTPClient(cfg Config) *resty.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retries := cfg.Retries
	if retries == 0 {
		retries = 3
	}

	wait := cfg.RetryWaitTime
	if wait == 0 {
		wait = 2 * time.Second
	}

	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(wait)
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

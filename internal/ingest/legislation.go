package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
	"github.com/agidash/agidash/pkg/tools/throttle"
)

const congressBillsURL = "https://api.congress.gov/v3/bill"

// agiMentions matches the bill-text phrases counted as AGI-related
// regulatory activity.
var agiMentions = regexp.MustCompile(`(?i)\bAGI\b|\bfrontier AI\b|\bartificial general intelligence\b`)

type LegislationConfig struct {
	APIKey       string        `yaml:"-"`
	Lookback     time.Duration `yaml:"lookback"`
	PageLimit    int           `yaml:"pageLimit"`
	TextInterval time.Duration `yaml:"textInterval"`
}

// NewLegislation counts recent Congress.gov bills whose text
// mentions AGI or frontier AI.
func NewLegislation(cfg Config, log logger.Logger) Source {
	lookback := cfg.Legislation.Lookback
	if lookback == 0 {
		lookback = 7 * 24 * time.Hour
	}

	pageLimit := cfg.Legislation.PageLimit
	if pageLimit == 0 {
		pageLimit = 250 // API maximum
	}

	textInterval := cfg.Legislation.TextInterval
	if textInterval == 0 {
		textInterval = 100 * time.Millisecond
	}

	return &legislationSource{
		http:         newHTTPClient(cfg),
		apiKey:       cfg.Legislation.APIKey,
		lookback:     lookback,
		pageLimit:    pageLimit,
		textInterval: textInterval,
		log:          log.With("legislation_source"),
	}
}

type legislationSource struct {
	http         *resty.Client
	apiKey       string
	lookback     time.Duration
	pageLimit    int
	textInterval time.Duration
	log          logger.Logger
}

func (s *legislationSource) Name() string { return SourceLegislation }

type congressBill struct {
	Congress int    `json:"congress"`
	Type     string `json:"type"`
	Number   string `json:"number"`
}

func (s *legislationSource) Fetch(ctx context.Context) (Snapshot, error) {
	bills, err := s.listBills(ctx)
	if err != nil {
		return Snapshot{}, errors.WrapFail(err, "list recent bills")
	}

	lim := throttle.New(s.textInterval)
	defer lim.Stop()

	series := make(map[string]float64)
	for _, bill := range bills {
		if !lim.Wait(ctx) {
			return Snapshot{}, ctx.Err()
		}

		matched, err := s.billMentionsAGI(ctx, bill)
		if err != nil {
			s.log.Warn(errors.WrapFailf(err, "check text of bill %s%s", bill.Type, bill.Number))
			continue
		}

		if matched {
			series[fmt.Sprintf("%s%s", bill.Type, bill.Number)] = 1
		}
	}

	s.log.Infof("found %d AGI-related bills out of %d", len(series), len(bills))

	return Snapshot{
		Source: s.Name(),
		Date:   today(),
		Score:  float64(len(series)),
		Series: series,
	}, nil
}

func (s *legislationSource) listBills(ctx context.Context) ([]congressBill, error) {
	now := time.Now().UTC()
	from := now.Add(-s.lookback)

	req := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fromDateTime": from.Format("2006-01-02") + "T00:00:00Z",
			"toDateTime":   now.Format("2006-01-02") + "T23:59:59Z",
			"limit":        fmt.Sprint(s.pageLimit),
			"format":       "json",
		})

	if s.apiKey != "" {
		req = req.SetQueryParam("api_key", s.apiKey)
	}

	resp, err := req.Get(congressBillsURL)
	if err != nil {
		return nil, errors.WrapFail(err, "fetch bill list")
	}
	if resp.IsError() {
		return nil, errors.Failf("fetch bill list: status %d", resp.StatusCode())
	}

	var parsed struct {
		Bills []congressBill `json:"bills"`
	}
	err = json.Unmarshal(resp.Body(), &parsed)
	if err != nil {
		return nil, errors.WrapFail(err, "unmarshal bill list")
	}

	return parsed.Bills, nil
}

func (s *legislationSource) billMentionsAGI(ctx context.Context, bill congressBill) (bool, error) {
	url := fmt.Sprintf("%s/%d/%s/%s/text", congressBillsURL, bill.Congress, bill.Type, bill.Number)

	req := s.http.R().SetContext(ctx).SetQueryParam("format", "json")
	if s.apiKey != "" {
		req = req.SetQueryParam("api_key", s.apiKey)
	}

	resp, err := req.Get(url)
	if err != nil {
		return false, errors.WrapFail(err, "fetch bill text")
	}
	if resp.IsError() {
		return false, errors.Failf("fetch bill text: status %d", resp.StatusCode())
	}

	return agiMentions.Match(resp.Body()), nil
}

package ingest

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

const clobHost = "https://clob.polymarket.com"

// neutralPrice stands in for a contract we could not price.
const neutralPrice = 0.5

type MarketsConfig struct {
	APIKey    string            `yaml:"-"`
	Host      string            `yaml:"host"`
	Contracts map[string]string `yaml:"contracts"`
}

// NewMarkets reads mid-prices of AI-related Polymarket contracts.
func NewMarkets(cfg Config, log logger.Logger) Source {
	host := cfg.Markets.Host
	if host == "" {
		host = clobHost
	}

	contracts := cfg.Markets.Contracts
	if len(contracts) == 0 {
		contracts = map[string]string{
			"ai-safety":    "0x4c5435b2be38fae3dcecfe1e2bf04bbb2326b906",
			"agi-progress": "0x7d8010eb8b5c23595542a5e51d05c5b87ba02fd3",
		}
	}

	return &marketsSource{
		http:      newHTTPClient(cfg),
		host:      host,
		apiKey:    cfg.Markets.APIKey,
		contracts: contracts,
		log:       log.With("markets_source"),
	}
}

type marketsSource struct {
	http      *resty.Client
	host      string
	apiKey    string
	contracts map[string]string
	log       logger.Logger
}

func (s *marketsSource) Name() string { return SourceMarkets }

func (s *marketsSource) Fetch(ctx context.Context) (Snapshot, error) {
	series := make(map[string]float64, len(s.contracts))

	for name, tokenID := range s.contracts {
		if s.apiKey == "" {
			s.log.Warnf("no Polymarket API key, using neutral price for %q", name)
			series[name] = neutralPrice
			continue
		}

		price, err := s.fetchMidpoint(ctx, tokenID)
		if err != nil {
			s.log.Warn(errors.WrapFailf(err, "price contract %q", name))
			series[name] = neutralPrice
			continue
		}
		series[name] = price
	}

	return Snapshot{
		Source: s.Name(),
		Date:   today(),
		Score:  meanOf(series),
		Series: series,
	}, nil
}

func (s *marketsSource) fetchMidpoint(ctx context.Context, tokenID string) (float64, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetHeader("POLY-API-KEY", s.apiKey).
		Get(s.host + "/midpoint")
	if err != nil {
		return 0, errors.WrapFail(err, "fetch midpoint")
	}
	if resp.IsError() {
		return 0, errors.Failf("fetch midpoint: status %d", resp.StatusCode())
	}

	return parseMidpoint(resp.Body())
}

func parseMidpoint(raw []byte) (float64, error) {
	var parsed struct {
		Mid string `json:"mid"`
	}

	err := json.Unmarshal(raw, &parsed)
	if err != nil {
		return 0, errors.WrapFail(err, "unmarshal midpoint")
	}

	price, err := strconv.ParseFloat(parsed.Mid, 64)
	if err != nil {
		return 0, errors.WrapFailf(err, "parse mid price %q", parsed.Mid)
	}

	return price, nil
}

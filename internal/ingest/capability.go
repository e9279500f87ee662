package ingest

import (
	"context"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

const leaderboardURL = "https://raw.githubusercontent.com/lmsys/leaderboard/main/leaderboard.yaml"

// capabilityMetrics are the benchmark columns folded into the
// capability score.
var capabilityMetrics = map[string]bool{
	"MMMU":     true,
	"MMLU-pro": true,
	"GSM-Hard": true,
}

// NewCapability scrapes frontier-model benchmark scores from the
// LMSys leaderboard.
func NewCapability(cfg Config, log logger.Logger) Source {
	return &capabilitySource{
		http: newHTTPClient(cfg),
		url:  leaderboardURL,
		log:  log.With("capability_source"),
	}
}

type capabilitySource struct {
	http *resty.Client
	url  string
	log  logger.Logger
}

func (s *capabilitySource) Name() string { return SourceCapability }

func (s *capabilitySource) Fetch(ctx context.Context) (Snapshot, error) {
	resp, err := s.http.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return Snapshot{}, errors.WrapFail(err, "fetch leaderboard")
	}
	if resp.IsError() {
		return Snapshot{}, errors.Failf("fetch leaderboard: status %d", resp.StatusCode())
	}

	series, err := parseLeaderboard(resp.Body())
	if err != nil {
		return Snapshot{}, errors.WrapFail(err, "parse leaderboard")
	}

	s.log.Infof("got %d benchmark scores", len(series))

	return Snapshot{
		Source: s.Name(),
		Date:   today(),
		Score:  meanOf(series),
		Series: series,
	}, nil
}

type leaderboard struct {
	Models []struct {
		Name    string `yaml:"name"`
		Metrics []struct {
			Name  string  `yaml:"name"`
			Value float64 `yaml:"value"`
		} `yaml:"metrics"`
	} `yaml:"models"`
}

// parseLeaderboard keeps only the tracked benchmarks, keyed as
// "<model>/<metric>".
func parseLeaderboard(raw []byte) (map[string]float64, error) {
	var board leaderboard
	err := yaml.Unmarshal(raw, &board)
	if err != nil {
		return nil, errors.WrapFail(err, "unmarshal leaderboard yaml")
	}

	series := make(map[string]float64)
	for _, model := range board.Models {
		for _, metric := range model.Metrics {
			if capabilityMetrics[metric.Name] {
				series[model.Name+"/"+metric.Name] = metric.Value
			}
		}
	}

	return series, nil
}

func meanOf(series map[string]float64) float64 {
	if len(series) == 0 {
		return 0
	}

	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

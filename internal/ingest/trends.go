package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

const (
	trendsExploreURL  = "https://trends.google.com/trends/api/explore"
	trendsTimelineURL = "https://trends.google.com/trends/api/widgetdata/multiline"

	trendsTimeframe = "now 7-d"
)

type TrendsConfig struct {
	Keywords []string `yaml:"keywords"`
	Geo      string   `yaml:"geo"`
}

// NewTrends reads Google Trends search interest for the configured
// keywords over the trailing week.
func NewTrends(cfg Config, log logger.Logger) Source {
	keywords := cfg.Trends.Keywords
	if len(keywords) == 0 {
		keywords = []string{"artificial intelligence", "AGI"}
	}

	geo := cfg.Trends.Geo
	if geo == "" {
		geo = "US"
	}

	return &trendsSource{
		http:     newHTTPClient(cfg),
		keywords: keywords,
		geo:      geo,
		log:      log.With("trends_source"),
	}
}

type trendsSource struct {
	http     *resty.Client
	keywords []string
	geo      string
	log      logger.Logger
}

func (s *trendsSource) Name() string { return SourceTrends }

func (s *trendsSource) Fetch(ctx context.Context) (Snapshot, error) {
	widget, err := s.explore(ctx)
	if err != nil {
		return Snapshot{}, errors.WrapFail(err, "resolve timeseries widget")
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"hl":    "en-US",
			"tz":    "360",
			"req":   string(widget.Request),
			"token": widget.Token,
		}).
		Get(trendsTimelineURL)
	if err != nil {
		return Snapshot{}, errors.WrapFail(err, "fetch interest over time")
	}
	if resp.IsError() {
		return Snapshot{}, errors.Failf("fetch interest over time: status %d", resp.StatusCode())
	}

	series, err := parseTimeline(resp.Body())
	if err != nil {
		return Snapshot{}, errors.WrapFail(err, "parse interest over time")
	}

	s.log.Infof("got %d interest points for %d keywords", len(series), len(s.keywords))

	return Snapshot{
		Source: s.Name(),
		Date:   today(),
		Score:  meanOf(series),
		Series: series,
	}, nil
}

type trendsWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

func (s *trendsSource) explore(ctx context.Context) (trendsWidget, error) {
	type comparisonItem struct {
		Keyword string `json:"keyword"`
		Geo     string `json:"geo"`
		Time    string `json:"time"`
	}

	items := make([]comparisonItem, 0, len(s.keywords))
	for _, kw := range s.keywords {
		items = append(items, comparisonItem{Keyword: kw, Geo: s.geo, Time: trendsTimeframe})
	}

	req, err := json.Marshal(map[string]any{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return trendsWidget{}, errors.WrapFail(err, "marshal explore request")
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"hl":  "en-US",
			"tz":  "360",
			"req": string(req),
		}).
		Get(trendsExploreURL)
	if err != nil {
		return trendsWidget{}, errors.WrapFail(err, "fetch explore response")
	}
	if resp.IsError() {
		return trendsWidget{}, errors.Failf("fetch explore response: status %d", resp.StatusCode())
	}

	var parsed struct {
		Widgets []trendsWidget `json:"widgets"`
	}
	err = json.Unmarshal(stripXSSIPrefix(resp.Body()), &parsed)
	if err != nil {
		return trendsWidget{}, errors.WrapFail(err, "unmarshal explore response")
	}

	for _, w := range parsed.Widgets {
		if w.ID == "TIMESERIES" {
			return w, nil
		}
	}

	return trendsWidget{}, errors.Fail("find TIMESERIES widget")
}

// stripXSSIPrefix drops the ")]}'," guard Google prepends to its
// JSON endpoints.
func stripXSSIPrefix(raw []byte) []byte {
	if i := bytes.IndexByte(raw, '\n'); i >= 0 && bytes.Contains(raw[:i], []byte(")]}'")) {
		return raw[i+1:]
	}
	return raw
}

// parseTimeline flattens timelineData into one value per timestamp,
// averaged over keywords.
func parseTimeline(raw []byte) (map[string]float64, error) {
	var parsed struct {
		Default struct {
			TimelineData []struct {
				Time  string    `json:"time"`
				Value []float64 `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}

	err := json.Unmarshal(stripXSSIPrefix(raw), &parsed)
	if err != nil {
		return nil, errors.WrapFail(err, "unmarshal timeline json")
	}

	series := make(map[string]float64, len(parsed.Default.TimelineData))
	for i, point := range parsed.Default.TimelineData {
		if len(point.Value) == 0 {
			continue
		}

		var sum float64
		for _, v := range point.Value {
			sum += v
		}

		key := point.Time
		if key == "" {
			key = strconv.Itoa(i)
		}
		series[key] = sum / float64(len(point.Value))
	}

	return series, nil
}

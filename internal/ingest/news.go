package ingest

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// aiTerms are counted against the total visible text of a front
// page. Single words match whole tokens, phrases match word pairs.
var (
	aiWords   = map[string]bool{"ai": true, "agi": true}
	aiPhrases = [][2]string{
		{"artificial", "intelligence"},
		{"machine", "learning"},
	}
)

type NewsConfig struct {
	Sites map[string]string `yaml:"sites"`
}

// NewNews measures how much of each configured news front page is
// about AI: the share of visible text tokens taken by AI terms,
// in percent, averaged over sites.
func NewNews(cfg Config, log logger.Logger) Source {
	sites := cfg.News.Sites
	if len(sites) == 0 {
		sites = map[string]string{
			"nyt": "https://www.nytimes.com/",
			"wsj": "https://www.wsj.com/",
			"bbc": "https://www.bbc.com/",
		}
	}

	return &newsSource{
		http:  newHTTPClient(cfg),
		sites: sites,
		log:   log.With("news_source"),
	}
}

type newsSource struct {
	http  *resty.Client
	sites map[string]string
	log   logger.Logger
}

func (s *newsSource) Name() string { return SourceNews }

func (s *newsSource) Fetch(ctx context.Context) (Snapshot, error) {
	series := make(map[string]float64, len(s.sites))

	for name, url := range s.sites {
		share, err := s.fetchSite(ctx, url)
		if err != nil {
			s.log.Warn(errors.WrapFailf(err, "score site %q", name))
			series[name] = 0
			continue
		}
		series[name] = share
	}

	if len(series) == 0 {
		return Snapshot{}, errors.Fail("score any news site")
	}

	return Snapshot{
		Source: s.Name(),
		Date:   today(),
		Score:  meanOf(series),
		Series: series,
	}, nil
}

func (s *newsSource) fetchSite(ctx context.Context, url string) (float64, error) {
	resp, err := s.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, errors.WrapFail(err, "fetch front page")
	}
	if resp.IsError() {
		return 0, errors.Failf("fetch front page: status %d", resp.StatusCode())
	}

	return scoreAIShare(resp.Body())
}

// scoreAIShare returns the percentage of text tokens on the page
// that belong to an AI term.
func scoreAIShare(html []byte) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, errors.WrapFail(err, "parse html")
	}

	doc.Find("script, style, noscript").Remove()

	tokens := strings.Fields(doc.Find("body").Text())
	if len(tokens) == 0 {
		return 0, nil
	}

	matched := 0
	for i, tok := range tokens {
		word := normalizeToken(tok)
		if aiWords[word] {
			matched++
			continue
		}

		for _, phrase := range aiPhrases {
			if word == phrase[0] && i+1 < len(tokens) && normalizeToken(tokens[i+1]) == phrase[1] {
				matched += 2
				break
			}
		}
	}

	return float64(matched) / float64(len(tokens)) * 100, nil
}

func normalizeToken(tok string) string {
	return strings.ToLower(strings.Trim(tok, ".,;:!?\"'()[]“”‘’-—"))
}

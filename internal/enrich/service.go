package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/metrics"
)

// DefaultBaseURL is the LinkedIn company page root.
const DefaultBaseURL = "https://www.linkedin.com/company"

// MaxRetries caps the number of degraded-key retries after the first attempt.
const MaxRetries = 2

var errNoStructuredData = errors.New("company page has no structured data")

// Config configures a Service.
type Config struct {
	BaseURL      string
	SessionToken string
	MaxRetries   int
}

// Service implements crawler.CompanyEnricher against LinkedIn about pages.
type Service struct {
	fetcher    crawler.Fetcher
	baseURL    string
	token      string
	maxRetries int
	logger     *zap.Logger
}

var _ crawler.CompanyEnricher = (*Service)(nil)

// NewService builds a Service. Without a session token every lookup
// returns the Unknown profile.
func NewService(fetcher crawler.Fetcher, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries > MaxRetries {
		cfg.MaxRetries = MaxRetries
	}
	s := &Service{
		fetcher:    fetcher,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      strings.TrimSpace(cfg.SessionToken),
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("enrich"),
	}
	if s.token == "" {
		s.logger.Warn("no session token configured; company enrichment disabled")
	}
	return s
}

// Enabled reports whether lookups hit the network.
func (s *Service) Enabled() bool {
	return s.token != ""
}

// Lookup fetches the company's about page, retrying with degraded keys.
// It never fails: exhaustion yields the Unknown profile.
func (s *Service) Lookup(ctx context.Context, company string) crawler.CompanyProfile {
	key := Slug(company)
	if !s.Enabled() {
		metrics.ObserveEnrichment("disabled")
		return UnknownProfile(key)
	}

	slug := key
	for attempt := 0; attempt <= s.maxRetries && slug != ""; attempt++ {
		profile, err := s.fetchProfile(ctx, slug)
		if err == nil {
			profile.Key = key
			metrics.ObserveEnrichment("resolved")
			return profile
		}
		if ctx.Err() != nil {
			break
		}
		s.logger.Debug("company lookup failed",
			zap.String("company", company),
			zap.String("slug", slug),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		slug = DegradeKey(slug)
	}

	metrics.ObserveEnrichment("unknown")
	return UnknownProfile(key)
}

// UnknownProfile is the result of an unresolved lookup.
func UnknownProfile(key string) crawler.CompanyProfile {
	return crawler.CompanyProfile{Key: key, Bucket: crawler.BucketUnknown, Sector: crawler.Unknown}
}

func (s *Service) aboutURL(slug string) string {
	return fmt.Sprintf("%s/%s/about/", s.baseURL, slug)
}

func (s *Service) fetchProfile(ctx context.Context, slug string) (crawler.CompanyProfile, error) {
	resp, err := s.fetcher.Fetch(ctx, crawler.FetchRequest{
		URL:     s.aboutURL(slug),
		Headers: http.Header{"Cookie": []string{"li_at=" + s.token}},
	})
	if err != nil {
		return crawler.CompanyProfile{}, err
	}
	blocks, err := decodeCodeBlocks(resp.Body)
	if err != nil {
		return crawler.CompanyProfile{}, err
	}
	if len(blocks) == 0 {
		return crawler.CompanyProfile{}, errNoStructuredData
	}
	return profileFromBlocks(blocks), nil
}

// decodeCodeBlocks JSON-decodes every <code> element; malformed ones are skipped.
func decodeCodeBlocks(body []byte) ([]any, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse company page: %w", err)
	}
	var blocks []any
	doc.Find("code").Each(func(_ int, code *goquery.Selection) {
		text := strings.TrimSpace(code.Text())
		if text == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return
		}
		blocks = append(blocks, v)
	})
	return blocks, nil
}

// profileFromBlocks takes the first usable staff range and specialty list.
func profileFromBlocks(blocks []any) crawler.CompanyProfile {
	profile := crawler.CompanyProfile{Bucket: crawler.BucketUnknown}
	rangeFound, sectorFound := false, false
	for _, block := range blocks {
		if !rangeFound {
			for _, v := range FindAll(block, "staffCountRange") {
				if start, end, ok := staffRange(v); ok {
					profile.EmployeesStart, profile.EmployeesEnd = start, end
					profile.Bucket = Classify(start, end)
					rangeFound = true
					break
				}
			}
		}
		if !sectorFound {
			for _, v := range FindAll(block, "specialities") {
				if sector, ok := specialities(v); ok {
					profile.Sector = sector
					sectorFound = true
					break
				}
			}
		}
		if rangeFound && sectorFound {
			break
		}
	}
	return profile
}

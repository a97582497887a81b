package sites

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

const (
	linkedInName     = "LinkedIn"
	linkedInPageSize = 25
	linkedInCard     = ".base-card.base-card--link.base-search-card.base-search-card--link.job-search-card"
)

// GeoIDs resolves a city to LinkedIn's numeric location id.
type GeoIDs interface {
	Lookup(city string) (string, bool)
}

// LinkedIn adapts the public LinkedIn job search page.
type LinkedIn struct {
	pageFetcher
	geoIDs GeoIDs
	report fieldReporter
}

var _ Site = (*LinkedIn)(nil)

// NewLinkedIn builds the LinkedIn adapter backed by a geoId table.
func NewLinkedIn(fetcher crawler.Fetcher, geoIDs GeoIDs, logger *zap.Logger) *LinkedIn {
	return &LinkedIn{
		pageFetcher: newPageFetcher(fetcher),
		geoIDs:      geoIDs,
		report:      fieldReporter{site: linkedInName, logger: named(logger, "linkedin")},
	}
}

func (s *LinkedIn) Name() string { return linkedInName }

func (s *LinkedIn) Host() string { return "www.linkedin.com" }

// BuildSearchURL fails when the city has no geoId.
func (s *LinkedIn) BuildSearchURL(group crawler.CountryGroup, city string, page int, profile crawler.SearchProfile) (string, error) {
	if s.geoIDs == nil {
		return "", fmt.Errorf("linkedin: no geoId table loaded")
	}
	geoID, ok := s.geoIDs.Lookup(city)
	if !ok {
		return "", fmt.Errorf("linkedin: no geoId for %q", city)
	}
	return fmt.Sprintf("https://%s/jobs/search/?geoId=%s&keywords=%s&location=%s&start=%d",
		s.Host(), geoID,
		escape(profile.Query), escape(city+" "+group.Country),
		page*linkedInPageSize,
	), nil
}

func (s *LinkedIn) SelectListingItems(doc *goquery.Document) []*goquery.Selection {
	var items []*goquery.Selection
	doc.Find(linkedInCard).Each(func(_ int, item *goquery.Selection) {
		items = append(items, item)
	})
	return items
}

func (s *LinkedIn) Extract(item *goquery.Selection, _ string, profile crawler.SearchProfile) (crawler.RawPosting, bool) {
	title, _ := fieldText(item, "h3.base-search-card__title")
	if title == "" || !AdmitTitle(title, profile.TitleMust, profile.TitleExcluded) {
		return crawler.RawPosting{}, false
	}

	p := crawler.RawPosting{Website: linkedInName, Title: title}

	if company, ok := fieldText(item, "h4.base-search-card__subtitle"); ok {
		p.Company = strings.ToUpper(company)
	} else {
		s.report.missing("company")
	}
	if location, ok := fieldText(item, "span.job-search-card__location"); ok {
		p.City = firstSegment(location)
	} else {
		s.report.missing("location")
	}
	if date, ok := fieldText(item, "time"); ok {
		p.Date = NormalizeDate(date)
	} else {
		s.report.missing("date")
	}

	if urn, ok := item.Attr("data-entity-urn"); ok && urn != "" {
		p.JobID = lastSegment(urn)
	} else {
		s.report.missing("data-entity-urn")
	}
	if href, ok := item.Find("a.base-card__full-link").First().Attr("href"); ok {
		p.URL = strings.TrimSpace(href)
	}
	return p, true
}

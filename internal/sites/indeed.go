package sites

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

const (
	indeedName     = "Indeed"
	indeedPageSize = 10
)

// Indeed adapts the Indeed search results page.
type Indeed struct {
	pageFetcher
	baseHost string
	report   fieldReporter
}

var _ Site = (*Indeed)(nil)

// NewIndeed builds the Indeed adapter.
func NewIndeed(fetcher crawler.Fetcher, logger *zap.Logger) *Indeed {
	return &Indeed{
		pageFetcher: newPageFetcher(fetcher),
		baseHost:    "indeed.com",
		report:      fieldReporter{site: indeedName, logger: named(logger, "indeed")},
	}
}

func (s *Indeed) Name() string { return indeedName }

func (s *Indeed) Host() string { return s.baseHost }

// BuildSearchURL targets the country subdomain. The US board lives on www.
func (s *Indeed) BuildSearchURL(group crawler.CountryGroup, city string, page int, profile crawler.SearchProfile) (string, error) {
	sub := strings.ToLower(strings.TrimSpace(group.Code))
	if sub == "" {
		return "", fmt.Errorf("indeed: no country code for %q", group.Country)
	}
	if sub == "us" {
		sub = "www"
	}
	return fmt.Sprintf("https://%s.%s/jobs?q=%s&l=%s&radius=%d&start=%d&lang=en",
		sub, s.baseHost,
		escape(profile.Query), escape(city),
		profile.Radius, page*indeedPageSize,
	), nil
}

func (s *Indeed) SelectListingItems(doc *goquery.Document) []*goquery.Selection {
	var items []*goquery.Selection
	doc.Find("div.mosaic-provider-jobcards").First().Find("a.tapItem").Each(func(_ int, item *goquery.Selection) {
		items = append(items, item)
	})
	return items
}

func (s *Indeed) Extract(item *goquery.Selection, searchURL string, profile crawler.SearchProfile) (crawler.RawPosting, bool) {
	title := strings.TrimSpace(item.Find("h2.jobTitle").First().Find("span").Last().Text())
	if title == "" || !AdmitTitle(title, profile.TitleMust, profile.TitleExcluded) {
		return crawler.RawPosting{}, false
	}

	p := crawler.RawPosting{Website: indeedName, Title: title}

	if company, ok := fieldText(item, "span.companyName"); ok {
		p.Company = strings.ToUpper(company)
	} else {
		s.report.missing("company")
	}
	if location, ok := fieldText(item, "div.companyLocation"); ok {
		p.City = firstSegment(location)
	} else {
		s.report.missing("location")
	}
	p.SiteRating, _ = fieldText(item, "span.ratingNumber")
	p.Salary, _ = fieldText(item, "div.metadata.salary-snippet-container")
	if summary, ok := fieldText(item, "div.job-snippet"); ok {
		p.Summary = collapseLines(summary)
	}
	if date, ok := fieldText(item, "span.date"); ok {
		p.Date = NormalizeDate(date)
	} else {
		s.report.missing("date")
	}

	if id, ok := item.Attr("data-jk"); ok && id != "" {
		p.JobID = id
	} else {
		s.report.missing("data-jk")
	}
	if empn, ok := item.Attr("data-empn"); ok && empn != "" {
		p.URL = fmt.Sprintf("%s&advn=%s&vjk=%s", searchURL, empn, p.JobID)
	} else {
		p.URL = fmt.Sprintf("%s&vjk=%s", searchURL, p.JobID)
	}
	return p, true
}

// escape query-escapes s using %20 for spaces.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(s)), "+", "%20")
}

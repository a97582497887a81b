package crawler

import (
	"net/http"
	"time"
)

// SearchProfile is the normalized, read-only input of a single run.
type SearchProfile struct {
	Websites        []string
	Query           string
	Locations       []string
	Radius          int
	TitleMust       []string
	TitleExcluded   []string
	Pages           int
	TitlePreference []string
	SizeBuckets     map[SizeBucket]bool
}

// BucketSelected reports whether the profile accepts the bucket. An empty
// selection accepts every named bucket; Unknown is never accepted.
func (p SearchProfile) BucketSelected(bucket SizeBucket) bool {
	if !bucket.Known() {
		return false
	}
	if len(p.SizeBuckets) == 0 {
		return true
	}
	return p.SizeBuckets[bucket]
}

// CountryGroup is one resolved country and the requested cities inside it.
type CountryGroup struct {
	Country string
	Code    string
	Cities  []string
}

// RawPosting is one listing item as extracted from a search results page.
type RawPosting struct {
	Website     string
	Country     string
	CountryCode string
	City        string
	Title       string
	Company     string
	Salary      string
	SiteRating  string
	Summary     string
	Date        string
	JobID       string
	URL         string
}

// CompanyProfile is the enrichment outcome for one normalized company key.
type CompanyProfile struct {
	Key            string
	EmployeesStart int
	EmployeesEnd   *int
	Bucket         SizeBucket
	Sector         string
}

// JobRecord is the terminal artifact of a run.
type JobRecord struct {
	Index             int        `json:"index"`
	GeneralRating     int        `json:"general_rating"`
	TitleRating       int        `json:"title_rating"`
	CompanySizeRating int        `json:"company_size_rating"`
	Website           string     `json:"website"`
	Title             string     `json:"title"`
	Company           string     `json:"company"`
	CompanyType       SizeBucket `json:"company_type"`
	CompanySector     string     `json:"company_sector"`
	Country           string     `json:"country"`
	CountryCode       string     `json:"country_code"`
	City              string     `json:"city"`
	Salary            string     `json:"salary"`
	SiteRating        string     `json:"site_rating"`
	Summary           string     `json:"summary"`
	Date              string     `json:"date"`
	JobID             string     `json:"job_id"`
	URL               string     `json:"job_url"`
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// RunSummary describes a finished run for logs and the API.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	PagesFetched   int       `json:"pages_fetched"`
	PagesFailed    int       `json:"pages_failed"`
	Postings       int       `json:"postings"`
	Companies      int       `json:"companies"`
	EnrichFailures int       `json:"enrich_failures"`
	Records        int       `json:"records"`
}

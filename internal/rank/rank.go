// Package rank deduplicates postings, scores them against the search
// profile and orders them for output.
package rank

import (
	"cmp"
	"slices"
	"strings"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

// Rank merges postings with their company profiles and returns the final
// ordered records. companies is keyed by the posting's company name; a
// missing entry counts as Unknown. postings must be in first-seen order.
func Rank(postings []crawler.RawPosting, companies map[string]crawler.CompanyProfile, profile crawler.SearchProfile) []crawler.JobRecord {
	records := make([]crawler.JobRecord, 0, len(postings))
	seen := make(map[string]struct{}, len(postings))

	for _, p := range postings {
		if p.JobID != "" {
			if _, dup := seen[p.JobID]; dup {
				continue
			}
			seen[p.JobID] = struct{}{}
		}

		company, ok := companies[p.Company]
		if !ok {
			company = crawler.CompanyProfile{Bucket: crawler.BucketUnknown, Sector: crawler.Unknown}
		}

		rec := trimmed(crawler.JobRecord{
			Website:       p.Website,
			Title:         p.Title,
			Company:       p.Company,
			CompanyType:   company.Bucket,
			CompanySector: company.Sector,
			Country:       p.Country,
			CountryCode:   p.CountryCode,
			City:          p.City,
			Salary:        p.Salary,
			SiteRating:    p.SiteRating,
			Summary:       p.Summary,
			Date:          p.Date,
			JobID:         p.JobID,
			URL:           p.URL,
		})
		rec.TitleRating = TitleRating(rec.Title, profile.TitlePreference)
		rec.CompanySizeRating = CompanySizeRating(rec.CompanyType, profile)
		rec.GeneralRating = rec.TitleRating + rec.CompanySizeRating
		records = append(records, rec)
	}

	slices.SortStableFunc(records, func(a, b crawler.JobRecord) int {
		return cmp.Compare(b.GeneralRating, a.GeneralRating)
	})
	for i := range records {
		records[i].Index = i
	}
	return records
}

// TitleRating counts the distinct preference keywords found in title.
func TitleRating(title string, preference []string) int {
	lower := strings.ToLower(title)
	seen := make(map[string]struct{}, len(preference))
	rating := 0
	for _, kw := range preference {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if strings.Contains(lower, kw) {
			rating++
		}
	}
	return rating
}

// CompanySizeRating is 1 when the bucket is among the selected ones.
func CompanySizeRating(bucket crawler.SizeBucket, profile crawler.SearchProfile) int {
	if profile.BucketSelected(bucket) {
		return 1
	}
	return 0
}

func trimmed(r crawler.JobRecord) crawler.JobRecord {
	for _, f := range []*string{
		&r.Website, &r.Title, &r.Company, &r.CompanySector, &r.Country, &r.CountryCode,
		&r.City, &r.Salary, &r.SiteRating, &r.Summary, &r.Date, &r.JobID, &r.URL,
	} {
		*f = crawler.TrimTrailing(*f)
	}
	r.CompanyType = crawler.SizeBucket(crawler.TrimTrailing(string(r.CompanyType)))
	return r
}

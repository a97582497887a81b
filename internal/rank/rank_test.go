package rank

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

func posting(id, title, company string) crawler.RawPosting {
	return crawler.RawPosting{Website: "Indeed", JobID: id, Title: title, Company: company, Country: "FRANCE", CountryCode: "fr"}
}

func TestRankDeduplicatesFirstSeen(t *testing.T) {
	t.Parallel()

	postings := []crawler.RawPosting{
		posting("X1", "Go Engineer", "ACME"),
		{Website: "LinkedIn", JobID: "X1", Title: "Go Engineer (copy)", Company: "ACME"},
		posting("X2", "Python Engineer", "ACME"),
		posting("", "No id A", "ACME"),
		posting("", "No id B", "ACME"),
	}
	got := Rank(postings, nil, crawler.SearchProfile{})
	require.Len(t, got, 4)
	require.Equal(t, "Indeed", got[0].Website)
	require.Equal(t, "Go Engineer", got[0].Title)
}

func TestRankOrdersByRatingStably(t *testing.T) {
	t.Parallel()

	profile := crawler.SearchProfile{
		TitlePreference: []string{"go", "backend"},
		SizeBuckets:     map[crawler.SizeBucket]bool{crawler.BucketSmall: true},
	}
	companies := map[string]crawler.CompanyProfile{
		"SMALLCO": {Key: "smallco", Bucket: crawler.BucketSmall, Sector: "Cloud"},
		"BIGCO":   {Key: "bigco", Bucket: crawler.BucketLarge, Sector: "Retail"},
	}
	postings := []crawler.RawPosting{
		posting("1", "Java Developer", "BIGCO"),
		posting("2", "Go Developer", "BIGCO"),
		posting("3", "Backend Go Developer", "SMALLCO"),
		posting("4", "Designer", "SMALLCO"),
		posting("5", "Go Tester", "BIGCO"),
		posting("6", "Accountant", "UNKNOWNCO"),
	}
	got := Rank(postings, companies, profile)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.JobID
		require.Equal(t, i, r.Index)
		require.Equal(t, r.TitleRating+r.CompanySizeRating, r.GeneralRating)
	}
	require.Equal(t, []string{"3", "2", "4", "5", "1", "6"}, ids)

	require.Equal(t, 3, got[0].GeneralRating)
	require.Equal(t, crawler.BucketSmall, got[0].CompanyType)
	require.Equal(t, "Cloud", got[0].CompanySector)
	require.Equal(t, crawler.BucketUnknown, got[5].CompanyType)
	require.Equal(t, crawler.Unknown, got[5].CompanySector)
}

func TestRankTrimsTrailingPunctuation(t *testing.T) {
	t.Parallel()

	p := posting("7;", "Engineer, ", "ACME.")
	p.Summary = "Great team;. "
	p.Salary = ""
	got := Rank([]crawler.RawPosting{p}, nil, crawler.SearchProfile{})
	require.Equal(t, "Engineer", got[0].Title)
	require.Equal(t, "ACME", got[0].Company)
	require.Equal(t, "Great team", got[0].Summary)
	require.Equal(t, "7", got[0].JobID)
	require.Empty(t, got[0].Salary)
}

func TestTitleRating(t *testing.T) {
	t.Parallel()

	require.Equal(t, 2, TitleRating("Senior Go Backend Engineer", []string{"go", "backend", "rust"}))
	require.Equal(t, 1, TitleRating("Go Engineer", []string{"go", "GO", ""}))
	require.Equal(t, 0, TitleRating("Go Engineer", nil))
}

func TestCompanySizeRating(t *testing.T) {
	t.Parallel()

	all := crawler.SearchProfile{}
	require.Equal(t, 1, CompanySizeRating(crawler.BucketLarge, all))
	require.Equal(t, 0, CompanySizeRating(crawler.BucketUnknown, all))

	only := crawler.SearchProfile{SizeBuckets: map[crawler.SizeBucket]bool{crawler.BucketStartup: true}}
	require.Equal(t, 1, CompanySizeRating(crawler.BucketStartup, only))
	require.Equal(t, 0, CompanySizeRating(crawler.BucketMedium, only))
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()

	require.Empty(t, Rank(nil, nil, crawler.SearchProfile{}))
}

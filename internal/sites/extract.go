package sites

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

const lessThanOneDay = "<1"

// AdmitTitle applies the keyword filter: every must keyword has to occur
// and no excluded keyword may occur, case-insensitively. Empty lists impose
// no constraint.
func AdmitTitle(title string, must, excluded []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range must {
		if kw != "" && !strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	for _, kw := range excluded {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

// NormalizeDate converts relative-time text such as "3 weeks ago" into the
// "<N> day ago" form. A day field shorter than two characters is padded
// with a leading zero, so "1 day ago" becomes "01 day ago".
func NormalizeDate(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	digits := digitRun(lower)

	var days string
	switch {
	case strings.Contains(lower, "minute"), strings.Contains(lower, "hour"), digits == "":
		days = lessThanOneDay
	case strings.Contains(lower, "week"):
		days = scaled(digits, 7)
	case strings.Contains(lower, "month"):
		days = scaled(digits, 30)
	default:
		days = strings.TrimLeft(digits, "0")
		if days == "" {
			days = "0"
		}
	}

	out := days + " day ago"
	if out[1] < '0' || out[1] > '9' {
		out = "0" + out
	}
	return out
}

// digitRun concatenates every digit in s.
func digitRun(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func scaled(digits string, factor int) string {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return digits
	}
	return strconv.Itoa(n * factor)
}

// firstSegment returns the trimmed text before the first comma.
func firstSegment(s string) string {
	before, _, _ := strings.Cut(strings.TrimSpace(s), ",")
	return strings.TrimSpace(before)
}

// lastSegment returns the text after the final colon of a URN.
func lastSegment(urn string) string {
	if i := strings.LastIndex(urn, ":"); i >= 0 {
		return urn[i+1:]
	}
	return urn
}

// collapseLines joins multi-line text into a single line.
func collapseLines(s string) string {
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, "\n", " ")
}

// fieldText returns the trimmed text of the first match of selector.
func fieldText(item *goquery.Selection, selector string) (string, bool) {
	sel := item.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// fieldReporter logs missing structural fields for one site.
type fieldReporter struct {
	site   string
	logger *zap.Logger
}

func (r fieldReporter) missing(field string) {
	r.logger.Debug("listing field missing", zap.Error(&crawler.ExtractionError{Website: r.site, Field: field}))
}

package domain

import (
	"regexp"
	"time"
)

// TimestampFormat is the timestamp layout used by the data portal for
// feature date ranges and subset requests.
const TimestampFormat = "2006-01-02T15:04:05"

// OpendapLinkTitle is the related-link title carrying the array-access endpoint.
const OpendapLinkTitle = "Opendap"

// VariableSummary is the per-variable descriptive triple carried on a feature.
type VariableSummary struct {
	Name     string
	Units    string
	LongName string
}

// Feature is one search-result record. Immutable once produced by the
// search client.
type Feature struct {
	Title      string
	Identifier string
	FileSize   int64

	// StartTime/EndTime are zero when the record declared no date range
	// and none could be recovered from the title.
	StartTime time.Time
	EndTime   time.Time

	Variables []VariableSummary

	// ODDURL points at the OpenSearch description document (facet options).
	ODDURL string
	// MetadataURL points at the detailed ISO metadata document.
	MetadataURL string
	// RelatedURLs maps a related-link title (e.g. "Opendap") to its URL.
	RelatedURLs map[string]string
}

// HasTimeRange reports whether the feature carries a usable date range.
func (f Feature) HasTimeRange() bool {
	return !f.StartTime.IsZero() && !f.EndTime.IsZero()
}

// OpendapURL returns the array-access endpoint, or "" when absent.
func (f Feature) OpendapURL() string {
	return f.RelatedURLs[OpendapLinkTitle]
}

// titleTimePatterns maps runs of digits embedded in granule filenames to
// timestamp layouts, most specific first.
var titleTimePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\d{14}`), "20060102150405"},
	{regexp.MustCompile(`\d{12}`), "200601021504"},
	{regexp.MustCompile(`\d{8}`), "20060102"},
	{regexp.MustCompile(`\d{6}`), "200601"},
	{regexp.MustCompile(`\d{4}`), "2006"},
}

// TimeFromTitle recovers a timestamp embedded in a granule title, used when
// a feature declares no date range.
func TimeFromTitle(title string) (time.Time, bool) {
	for _, p := range titleTimePatterns {
		match := p.re.FindString(title)
		if match == "" {
			continue
		}
		t, err := time.Parse(p.layout, match)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

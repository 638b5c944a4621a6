package opensearch

import (
	"strings"
	"time"

	"github.com/climkit/ccidex/internal/domain"
)

// featureCollectionDTO mirrors the geo+json response of the search endpoint.
type featureCollectionDTO struct {
	Features []featureDTO `json:"features"`
}

type featureDTO struct {
	Properties struct {
		Title      string `json:"title"`
		Identifier string `json:"identifier"`
		Date       string `json:"date"`
		FileSize   int64  `json:"filesize"`
		Variables  []struct {
			VarID    string `json:"var_id"`
			Units    string `json:"units"`
			LongName string `json:"long_name"`
		} `json:"variables"`
		Links struct {
			Search      []linkDTO `json:"search"`
			DescribedBy []linkDTO `json:"describedby"`
			Related     []linkDTO `json:"related"`
		} `json:"links"`
	} `json:"properties"`
}

type linkDTO struct {
	Title string `json:"title"`
	HRef  string `json:"href"`
}

// toDomain converts one raw feature into its immutable domain form.
// The date range comes from the "date" property when present, otherwise
// from a timestamp embedded in the title.
func (f featureDTO) toDomain() domain.Feature {
	p := f.Properties

	feat := domain.Feature{
		Title:      p.Title,
		Identifier: p.Identifier,
		FileSize:   p.FileSize,
	}

	if start, end, ok := splitDateRange(p.Date); ok {
		feat.StartTime, feat.EndTime = start, end
	} else if t, ok := domain.TimeFromTitle(p.Title); ok {
		feat.StartTime, feat.EndTime = t, t
	}

	for _, v := range p.Variables {
		feat.Variables = append(feat.Variables, domain.VariableSummary{
			Name:     v.VarID,
			Units:    v.Units,
			LongName: v.LongName,
		})
	}

	if len(p.Links.Search) > 0 {
		feat.ODDURL = p.Links.Search[0].HRef
	}
	if len(p.Links.DescribedBy) > 0 {
		feat.MetadataURL = p.Links.DescribedBy[0].HRef
	}
	if len(p.Links.Related) > 0 {
		feat.RelatedURLs = make(map[string]string, len(p.Links.Related))
		for _, l := range p.Links.Related {
			feat.RelatedURLs[l.Title] = l.HRef
		}
	}

	return feat
}

func splitDateRange(date string) (time.Time, time.Time, bool) {
	if !strings.Contains(date, "/") {
		return time.Time{}, time.Time{}, false
	}
	parts := strings.SplitN(date, "/", 2)
	start, err := time.Parse(domain.TimestampFormat, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(domain.TimestampFormat, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// Package descxml parses the portal's detailed ISO 19115 metadata documents
// into flat descriptive fields.
package descxml

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/xmlpath"
)

const identification = "identificationInfo/MD_DataIdentification"

// fieldPaths is the fixed table of structural paths for plain descriptive
// fields.
var fieldPaths = map[string]string{
	"abstract": identification + "/abstract/CharacterString",
	"title":    identification + "/citation/CI_Citation/title/CharacterString",
	"licences": identification + "/resourceConstraints/MD_Constraints/useLimitation/CharacterString",
	"bbox_minx": identification +
		"/extent/EX_Extent/geographicElement/EX_GeographicBoundingBox/westBoundLongitude/Decimal",
	"bbox_miny": identification +
		"/extent/EX_Extent/geographicElement/EX_GeographicBoundingBox/southBoundLatitude/Decimal",
	"bbox_maxx": identification +
		"/extent/EX_Extent/geographicElement/EX_GeographicBoundingBox/eastBoundLongitude/Decimal",
	"bbox_maxy": identification +
		"/extent/EX_Extent/geographicElement/EX_GeographicBoundingBox/northBoundLatitude/Decimal",
	"temporal_coverage_start": identification +
		"/extent/EX_Extent/temporalElement/EX_TemporalExtent/extent/TimePeriod/beginPosition",
	"temporal_coverage_end": identification +
		"/extent/EX_Extent/temporalElement/EX_TemporalExtent/extent/TimePeriod/endPosition",
}

// The file format is never declared directly; the document carries a
// descriptive phrase that maps to a canonical short form.
var formatSubstitution = struct {
	path    string
	literal string
	short   string
}{
	path:    identification + "/resourceFormat/MD_Format/name/CharacterString",
	literal: "Data are in NetCDF format",
	short:   ".nc",
}

// Creation and publication dates are linked fields: first an element whose
// type code matches, then a relative walk to the date value.
var linkedDateFields = map[string]string{
	"creation_date":    "creation",
	"publication_date": "publication",
}

const (
	dateTypePath = identification + "/citation/CI_Citation/date/CI_Date/dateType/CI_DateTypeCode"
	relativeDate = "date/DateTime"
	parentHops   = 2 // CI_DateTypeCode -> dateType -> CI_Date
)

// Parse extracts descriptive fields from a detailed-metadata document.
// A field is included only when a non-empty value was found.
func Parse(doc []byte) (domain.FacetSet, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(doc); err != nil {
		return nil, fmt.Errorf("%w: detailed-metadata document: %v", domain.ErrParse, err)
	}
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: detailed-metadata document has no root element", domain.ErrParse)
	}

	fields := domain.FacetSet{}
	for name, path := range fieldPaths {
		switch texts := xmlpath.Texts(root, path); len(texts) {
		case 0:
		case 1:
			fields.Set(name, domain.Single(texts[0]))
		default:
			fields.Set(name, domain.Multiple(texts))
		}
	}

	if el := xmlpath.Find(root, formatSubstitution.path); el != nil {
		if strings.TrimSpace(el.Text()) == formatSubstitution.literal {
			fields.Set("file_format", domain.Single(formatSubstitution.short))
		}
	}

	for name, typeCode := range linkedDateFields {
		if date := linkedDate(root, typeCode); date != "" {
			fields.Set(name, domain.Single(date))
		}
	}

	return fields, nil
}

// linkedDate locates the CI_Date element whose type code matches and follows
// the relative path to the actual date value.
func linkedDate(root *etree.Element, typeCode string) string {
	for _, el := range xmlpath.FindAll(root, dateTypePath) {
		if strings.TrimSpace(el.Text()) != typeCode {
			continue
		}
		anchor := el
		for hop := 0; hop < parentHops; hop++ {
			if anchor = anchor.Parent(); anchor == nil {
				return ""
			}
		}
		if date := xmlpath.Find(anchor, relativeDate); date != nil {
			return strings.TrimSpace(date.Text())
		}
	}
	return ""
}

// Fetcher retrieves and parses detailed-metadata documents. An absent URL or
// a parse failure yields an empty field set with a log entry; transport
// failures propagate.
type Fetcher struct {
	httpc  *http.Client
	logger *zap.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(httpc *http.Client, logger *zap.Logger) *Fetcher {
	if httpc == nil {
		httpc = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{httpc: httpc, logger: logger}
}

// Fetch retrieves the detailed-metadata document at url and parses it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (domain.FacetSet, error) {
	if url == "" {
		return domain.FacetSet{}, nil
	}
	doc, err := fetchDocument(ctx, f.httpc, url)
	if err != nil {
		return nil, err
	}
	fields, err := Parse(doc)
	if err != nil {
		f.logger.Info("cannot read metadata due to parsing error",
			zap.String("url", url), zap.Error(err))
		return domain.FacetSet{}, nil
	}
	return fields, nil
}

func fetchDocument(ctx context.Context, httpc *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrUpstream, url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

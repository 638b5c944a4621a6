// Package odd parses OpenSearch description documents: the per-collection
// XML declaring which facet values exist for each search parameter.
package odd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/xmlpath"
)

// parameterFacets maps declared parameter names to canonical facet names.
var parameterFacets = map[string]string{
	"ecv":             "ecv",
	"frequency":       "time_frequency",
	"institute":       "institute",
	"processingLevel": "processing_level",
	"productString":   "product_string",
	"productVersion":  "product_version",
	"dataType":        "data_type",
	"sensor":          "sensor_id",
	"platform":        "platform_id",
	"fileFormat":      "file_format",
	"drsId":           "drs_id",
}

// Parse extracts the facet set from a description document. A parameter with
// exactly one declared option becomes a single value; several options become
// an ordered list of unique values in document order.
func Parse(doc []byte) (domain.FacetSet, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(doc); err != nil {
		return nil, fmt.Errorf("%w: description document: %v", domain.ErrParse, err)
	}
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: description document has no root element", domain.ErrParse)
	}

	facets := domain.FacetSet{}
	for _, param := range xmlpath.FindAll(root, "Url/Parameter") {
		facetName, ok := parameterFacets[param.SelectAttrValue("name", "")]
		if !ok {
			continue
		}
		var values []string
		for _, option := range xmlpath.Children(param, "Option") {
			if v := option.SelectAttrValue("value", ""); v != "" {
				values = append(values, v)
			}
		}
		switch len(values) {
		case 0:
		case 1:
			facets.Set(facetName, domain.Single(values[0]))
		default:
			facets.Set(facetName, domain.Multiple(values))
		}
	}
	return facets, nil
}

// Fetcher retrieves and parses description documents. An absent URL or an
// unparseable document yields an empty facet set; transport failures
// propagate.
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

// Fetch retrieves the description document at url and parses its facets.
func (f *Fetcher) Fetch(ctx context.Context, url string) (domain.FacetSet, error) {
	if url == "" {
		return domain.FacetSet{}, nil
	}
	doc, err := fetchDocument(ctx, f.httpc, url)
	if err != nil {
		return nil, err
	}
	facets, err := Parse(doc)
	if err != nil {
		f.logger.Info("cannot parse description document",
			zap.String("url", url), zap.Error(err))
		return domain.FacetSet{}, nil
	}
	return facets, nil
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

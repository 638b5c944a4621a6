// Package ccidex is an SDK for the ESA CCI Open Data Portal: it discovers
// dataset collections through the portal's federated search service,
// assembles their structural and descriptive metadata, and extracts binary
// sub-arrays through the portal's array-access protocol.
package ccidex

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/catalogue"
	"github.com/climkit/ccidex/internal/dap"
	"github.com/climkit/ccidex/internal/descxml"
	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/metrics"
	"github.com/climkit/ccidex/internal/odd"
	"github.com/climkit/ccidex/internal/opensearch"
	"github.com/climkit/ccidex/internal/subset"
)

// DefaultEndpoint is the portal's federated search URL.
const DefaultEndpoint = "http://opensearch-test.ceda.ac.uk/opensearch/request"

// DefaultParent is the parent collection identifier.
const DefaultParent = "cci"

// Client is the ccidex SDK entry point.
type Client struct {
	builder   *catalogue.Builder
	assembler *catalogue.Assembler
	engine    *subset.Engine
}

// New creates a ccidex Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		endpoint:    DefaultEndpoint,
		parent:      DefaultParent,
		pageSize:    opensearch.DefaultPageSize,
		concurrency: catalogue.DefaultConcurrency,
		httpc:       &http.Client{},
		logger:      zap.NewNop(),
		policy:      ErrorPolicyRaise,
	}
	for _, o := range opts {
		o(cfg)
	}

	excluded := make(map[string]struct{}, len(cfg.exclusions))
	for _, id := range cfg.exclusions {
		excluded[id] = struct{}{}
	}
	if cfg.exclusionFile != "" {
		fromFile, err := catalogue.LoadExclusions(cfg.exclusionFile)
		if err != nil {
			return nil, err
		}
		for id := range fromFile {
			excluded[id] = struct{}{}
		}
	}

	metrics.RegisterCoreMetrics()

	searchOpts := []opensearch.Option{
		opensearch.WithHTTPClient(cfg.httpc),
		opensearch.WithPageSize(cfg.pageSize),
		opensearch.WithLogger(cfg.logger),
		opensearch.WithErrorPolicy(opensearch.ErrorPolicy(cfg.policy)),
	}
	if cfg.onError != nil {
		searchOpts = append(searchOpts, opensearch.WithErrorHandler(opensearch.ErrorHandler(cfg.onError)))
	}
	search := opensearch.New(cfg.endpoint, searchOpts...)

	data := dap.NewClient(cfg.httpc)
	assembler := catalogue.NewAssembler(
		search,
		odd.NewFetcher(cfg.httpc, cfg.logger),
		descxml.NewFetcher(cfg.httpc, cfg.logger),
		data,
		cfg.parent,
		cfg.logger,
	)
	builder := catalogue.NewBuilder(search, assembler, cfg.parent,
		catalogue.WithExclusions(excluded),
		catalogue.WithConcurrency(cfg.concurrency),
		catalogue.WithLogger(cfg.logger),
	)
	engine := subset.NewEngine(search, data, cfg.logger)

	return &Client{
		builder:   builder,
		assembler: assembler,
		engine:    engine,
	}, nil
}

// DatasetNames runs one discovery pass and returns every canonical dataset
// identifier of the parent collection.
func (c *Client) DatasetNames(ctx context.Context) ([]string, error) {
	return c.builder.Build(ctx)
}

// HasDataset reports whether id appears in the current discovery output.
func (c *Client) HasDataset(ctx context.Context, id string) (bool, error) {
	names, err := c.DatasetNames(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == id {
			return true, nil
		}
	}
	return false, nil
}

// DatasetMetadata assembles the full description of one dataset family.
func (c *Client) DatasetMetadata(ctx context.Context, id string) (DatasetMetadata, error) {
	md, err := c.assembler.DatasetMetadata(ctx, id)
	if err != nil {
		return DatasetMetadata{}, err
	}
	return newDatasetMetadata(md), nil
}

// SubsetRequest selects the data to extract: a variable list, a time range,
// a bounding box, and arbitrary extra search filters (parent identifier,
// drs id, ...).
type SubsetRequest struct {
	VarNames  []string
	StartDate time.Time
	EndDate   time.Time
	// BBox is lonMin, latMin, lonMax, latMax.
	BBox  [4]float64
	Query map[string]string
}

// GetData extracts the requested sub-arrays as a flat buffer of IEEE-754
// 32-bit little-endian floats, variable-major, length = variables x time
// window x lat window x lon window.
func (c *Client) GetData(ctx context.Context, req SubsetRequest) ([]byte, error) {
	return c.engine.Extract(ctx, subset.Request{
		VarNames:  req.VarNames,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		BBox:      req.BBox,
		Query:     opensearch.Query(req.Query),
	})
}

// VariableInfo describes one variable of a dataset.
type VariableInfo struct {
	DataType   string
	Dimensions []string
	LongName   string
	Units      string
}

// DatasetMetadata is the assembled description of one dataset family.
// Fields values are strings for single-valued facets and []string for
// multi-valued ones; Attributes nests per-variable containers as
// map[string]any.
type DatasetMetadata struct {
	Fields     map[string]any
	Dimensions map[string]int
	Variables  map[string]VariableInfo
	Attributes map[string]any
}

func newDatasetMetadata(md domain.DatasetMetadata) DatasetMetadata {
	out := DatasetMetadata{
		Fields:     make(map[string]any, len(md.Fields)),
		Dimensions: md.Dimensions,
		Variables:  make(map[string]VariableInfo, len(md.Variables)),
		Attributes: flattenAttributes(md.Attributes),
	}
	for name, f := range md.Fields {
		if f.IsMultiple() {
			out.Fields[name] = f.Values()
		} else {
			out.Fields[name] = f.First()
		}
	}
	for name, v := range md.Variables {
		out.Variables[name] = VariableInfo{
			DataType:   v.DataType,
			Dimensions: v.Dimensions,
			LongName:   v.LongName,
			Units:      v.Units,
		}
	}
	return out
}

func flattenAttributes(attrs domain.Attributes) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for name, value := range attrs {
		if nested, ok := value.(domain.Attributes); ok {
			out[name] = flattenAttributes(nested)
			continue
		}
		out[name] = value
	}
	return out
}

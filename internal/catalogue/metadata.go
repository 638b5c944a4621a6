package catalogue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/opensearch"
)

// DescriptorSource fetches one descriptor document and returns its fields.
type DescriptorSource interface {
	Fetch(ctx context.Context, url string) (domain.FacetSet, error)
}

// StructureSource reads a dataset's layout through its array-access
// endpoint.
type StructureSource interface {
	FetchStructure(ctx context.Context, endpoint string) (map[string]int, map[string]domain.VariableInfo, error)
	FetchAttributes(ctx context.Context, endpoint string) (domain.Attributes, error)
}

// Facets whose singular and plural representations arrive from different
// descriptor documents and must be reconciled rather than kept first-wins.
var harmonizedFacets = map[string]struct{}{
	"file_format":      {},
	"platform_id":      {},
	"sensor_id":        {},
	"processing_level": {},
	"time_frequency":   {},
}

// Assembler combines search results with descriptor and structural metadata
// into dataset descriptions.
type Assembler struct {
	search SearchClient
	odd    DescriptorSource
	desc   DescriptorSource
	dap    StructureSource
	parent string
	logger *zap.Logger
}

// NewAssembler creates an Assembler for a parent collection.
func NewAssembler(
	search SearchClient, odd, desc DescriptorSource, dap StructureSource,
	parent string, logger *zap.Logger,
) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		search: search, odd: odd, desc: desc, dap: dap,
		parent: parent, logger: logger,
	}
}

// Facets fetches both descriptor documents for a feature and merges them:
// the parameter-description facets win key-wise, except for the harmonized
// facet pairs whose representations are reconciled.
func (a *Assembler) Facets(ctx context.Context, feature domain.Feature) (domain.FacetSet, error) {
	facets, err := a.odd.Fetch(ctx, feature.ODDURL)
	if err != nil {
		return nil, fmt.Errorf("description document for %s: %w", feature.Identifier, err)
	}
	fields, err := a.desc.Fetch(ctx, feature.MetadataURL)
	if err != nil {
		return nil, fmt.Errorf("metadata document for %s: %w", feature.Identifier, err)
	}
	for name, f := range fields {
		if _, ok := harmonizedFacets[name]; ok {
			facets.Set(name, f)
		} else {
			facets.SetIfAbsent(name, f)
		}
	}
	return facets, nil
}

// DatasetMetadata assembles the full description of one dataset family:
// descriptor fields plus dimensions, variables, and attributes read from one
// representative granule.
func (a *Assembler) DatasetMetadata(ctx context.Context, id string) (domain.DatasetMetadata, error) {
	features, err := a.search.FetchAll(ctx, opensearch.Query{
		"parentIdentifier": a.parent,
		"uuid":             id,
	})
	if err != nil {
		return domain.DatasetMetadata{}, err
	}
	if len(features) == 0 {
		return domain.DatasetMetadata{}, fmt.Errorf("%w: %s", domain.ErrNoDataset, id)
	}
	family := features[0]

	fields, err := a.Facets(ctx, family)
	if err != nil {
		return domain.DatasetMetadata{}, err
	}

	md := domain.DatasetMetadata{
		Fields:     fields,
		Dimensions: map[string]int{},
		Variables:  map[string]domain.VariableInfo{},
	}

	if len(family.Variables) > 0 {
		a.readStructure(ctx, family, &md)
	}

	return md, nil
}

// readStructure reads dimensions, variable infos and attributes from one
// representative granule of the family. Structural metadata is read once per
// dataset family, not once per file; an unreadable granule degrades to an
// empty layout.
func (a *Assembler) readStructure(ctx context.Context, family domain.Feature, md *domain.DatasetMetadata) {
	granule, err := a.search.FetchOne(ctx, opensearch.Query{"parentIdentifier": family.Identifier}, 1)
	if err != nil {
		a.logger.Warn("could not fetch representative granule",
			zap.String("dataset", family.Identifier), zap.Error(err))
		return
	}
	if granule == nil {
		return
	}
	endpoint := granule.OpendapURL()
	if endpoint == "" {
		return
	}

	dims, vars, err := a.dap.FetchStructure(ctx, endpoint)
	if err != nil {
		a.logger.Warn("could not open structure dump",
			zap.String("endpoint", endpoint), zap.Error(err))
		return
	}
	md.Dimensions = dims
	md.Variables = mergeVariableSummaries(vars, family.Variables)

	attrs, err := a.dap.FetchAttributes(ctx, endpoint)
	if err != nil {
		a.logger.Warn("could not open attribute dump",
			zap.String("endpoint", endpoint), zap.Error(err))
		return
	}
	md.Attributes = attrs
}

// mergeVariableSummaries enriches structure-dump variable infos with the
// long names and units carried on the family feature, where present.
func mergeVariableSummaries(
	vars map[string]domain.VariableInfo, summaries []domain.VariableSummary,
) map[string]domain.VariableInfo {
	for _, s := range summaries {
		info, ok := vars[s.Name]
		if !ok {
			continue
		}
		if s.LongName != "" {
			info.LongName = s.LongName
		}
		if s.Units != "" {
			info.Units = s.Units
		}
		vars[s.Name] = info
	}
	return vars
}

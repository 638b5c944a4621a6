// Package catalogue enumerates canonical dataset identifiers for a parent
// collection by combining search results with descriptor metadata.
package catalogue

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/metrics"
	"github.com/climkit/ccidex/internal/opensearch"
)

// IdentifierPrefix is the leading segment of every synthesized dataset
// identifier.
const IdentifierPrefix = "esacci2"

// DefaultConcurrency bounds the per-group descriptor fetches of one
// discovery pass.
const DefaultConcurrency = 8

// SearchClient is the consumer interface for the paginated search endpoint.
type SearchClient interface {
	FetchAll(ctx context.Context, query opensearch.Query) ([]domain.Feature, error)
	FetchOne(ctx context.Context, query opensearch.Query, index int) (*domain.Feature, error)
}

// FacetSource resolves the descriptor facet set for one feature.
type FacetSource interface {
	Facets(ctx context.Context, feature domain.Feature) (domain.FacetSet, error)
}

// requiredFacets are the facets every dataset group must declare, in
// identifier segment order. A group missing any of them is skipped.
var requiredFacets = []string{
	"time_frequency",
	"processing_level",
	"data_type",
	"sensor_id",
	"platform_id",
	"product_string",
	"product_version",
	"drs_id",
}

// Builder runs discovery passes over a parent collection.
type Builder struct {
	search      SearchClient
	facets      FacetSource
	parent      string
	excluded    map[string]struct{}
	concurrency int
	logger      *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithExclusions suppresses the given identifiers from discovery output.
func WithExclusions(excluded map[string]struct{}) BuilderOption {
	return func(b *Builder) { b.excluded = excluded }
}

// WithConcurrency bounds the number of dataset groups processed in parallel.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder for the given parent collection.
func NewBuilder(search SearchClient, facets FacetSource, parent string, opts ...BuilderOption) *Builder {
	b := &Builder{
		search:      search,
		facets:      facets,
		parent:      parent,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build runs one discovery pass: fetch the full feature list, group by
// collection identifier, resolve each group's facets concurrently, and
// synthesize canonical identifiers. Identifier order follows group order in
// the search response; a failing group fails the whole pass.
func (b *Builder) Build(ctx context.Context) ([]string, error) {
	start := time.Now()
	defer func() { metrics.ObserveCatalogueBuild(time.Since(start)) }()

	features, err := b.search.FetchAll(ctx, opensearch.Query{"parentIdentifier": b.parent})
	if err != nil {
		return nil, err
	}

	groups := groupByIdentifier(features)

	// One task per group on a bounded pool. Results land in per-group
	// slots; the first failure cancels the siblings and discards all
	// partial results.
	candidates := make([][]string, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, rep := range groups {
		i, rep := i, rep
		g.Go(func() error {
			facets, err := b.facets.Facets(gctx, rep)
			if err != nil {
				return err
			}
			candidates[i] = b.synthesize(facets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Single aggregation point: exclusion and collision checks run
	// serially over the deterministic group order.
	var identifiers []string
	seen := map[string]struct{}{}
	for _, group := range candidates {
		for _, id := range group {
			if _, ok := b.excluded[id]; ok {
				continue
			}
			if _, ok := seen[id]; ok {
				b.logger.Warn("dataset already included, omitting duplicate",
					zap.String("identifier", id))
				continue
			}
			seen[id] = struct{}{}
			identifiers = append(identifiers, id)
		}
	}
	return identifiers, nil
}

// groupByIdentifier keeps one representative feature per collection
// identifier, in first-seen order.
func groupByIdentifier(features []domain.Feature) []domain.Feature {
	var groups []domain.Feature
	seen := map[string]struct{}{}
	for _, f := range features {
		if f.Identifier == "" {
			continue
		}
		if _, ok := seen[f.Identifier]; ok {
			continue
		}
		seen[f.Identifier] = struct{}{}
		groups = append(groups, f)
	}
	return groups
}

// synthesize produces the candidate identifiers for one group: the
// Cartesian product of the required facet value lists. A group missing the
// ecv or any required facet yields nothing.
func (b *Builder) synthesize(facets domain.FacetSet) []string {
	ecv := facets.First("ecv")
	if ecv == "" {
		return nil
	}

	lists := make([][]string, len(requiredFacets))
	for i, name := range requiredFacets {
		values := facets.Values(name)
		if len(values) == 0 {
			return nil
		}
		lists[i] = values
	}

	total := 1
	for _, list := range lists {
		total *= len(list)
	}

	identifiers := make([]string, 0, total)
	indices := make([]int, len(lists))
	for {
		identifiers = append(identifiers, b.identifier(ecv, lists, indices))

		// Advance the rightmost index, odometer style.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(lists[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return identifiers
		}
	}
}

// identifier renders one candidate: prefix, raw ecv, one normalized token
// per facet, and the family suffix taken from the chosen drs id.
func (b *Builder) identifier(ecv string, lists [][]string, indices []int) string {
	segments := make([]string, 0, len(lists)+2)
	segments = append(segments, IdentifierPrefix, ecv)
	for i := range lists {
		value := lists[i][indices[i]]
		if requiredFacets[i] == "drs_id" {
			segments = append(segments, drsSuffix(value))
		} else {
			segments = append(segments, normalizeToken(value))
		}
	}
	return strings.Join(segments, ".")
}

// drsSuffix returns the last dot-segment of a drs id.
func drsSuffix(drsID string) string {
	if i := strings.LastIndexByte(drsID, '.'); i >= 0 {
		return drsID[i+1:]
	}
	return drsID
}

// normalizeToken makes a facet value safe as an identifier segment: spaces
// become hyphens, leading and trailing dots are stripped, remaining dots
// become hyphens.
func normalizeToken(value string) string {
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.TrimPrefix(value, ".")
	value = strings.TrimSuffix(value, ".")
	return strings.ReplaceAll(value, ".", "-")
}

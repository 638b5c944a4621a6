package catalogue

import (
	"context"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/opensearch"
)

// mockSearch implements the consumer interface for tests.
type mockSearch struct {
	fetchAllFn func(ctx context.Context, query opensearch.Query) ([]domain.Feature, error)
	fetchOneFn func(ctx context.Context, query opensearch.Query, index int) (*domain.Feature, error)
}

func (m *mockSearch) FetchAll(ctx context.Context, query opensearch.Query) ([]domain.Feature, error) {
	if m.fetchAllFn != nil {
		return m.fetchAllFn(ctx, query)
	}
	return nil, nil
}

func (m *mockSearch) FetchOne(ctx context.Context, query opensearch.Query, index int) (*domain.Feature, error) {
	if m.fetchOneFn != nil {
		return m.fetchOneFn(ctx, query, index)
	}
	return nil, nil
}

// mockFacets resolves facet sets per collection identifier.
type mockFacets struct {
	byIdentifier map[string]domain.FacetSet
	err          error
}

func (m *mockFacets) Facets(_ context.Context, feature domain.Feature) (domain.FacetSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byIdentifier[feature.Identifier], nil
}

// mockDescriptor returns a fixed facet set for every URL.
type mockDescriptor struct {
	byURL map[string]domain.FacetSet
	err   error
}

func (m *mockDescriptor) Fetch(_ context.Context, url string) (domain.FacetSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	if facets, ok := m.byURL[url]; ok {
		return facets, nil
	}
	return domain.FacetSet{}, nil
}

// mockStructure implements the array-access consumer interface.
type mockStructure struct {
	dims  map[string]int
	vars  map[string]domain.VariableInfo
	attrs domain.Attributes

	structureErr error
	attrsErr     error

	lastEndpoint string
}

func (m *mockStructure) FetchStructure(_ context.Context, endpoint string) (map[string]int, map[string]domain.VariableInfo, error) {
	m.lastEndpoint = endpoint
	return m.dims, m.vars, m.structureErr
}

func (m *mockStructure) FetchAttributes(_ context.Context, _ string) (domain.Attributes, error) {
	return m.attrs, m.attrsErr
}

// fullFacets builds a facet set carrying every required facet as a single
// value, ready to be overridden per test.
func fullFacets(ecv string) domain.FacetSet {
	s := domain.FacetSet{}
	s.Set("ecv", domain.Single(ecv))
	s.Set("time_frequency", domain.Single("day"))
	s.Set("processing_level", domain.Single("L3C"))
	s.Set("data_type", domain.Single("AOD"))
	s.Set("sensor_id", domain.Single("AATSR"))
	s.Set("platform_id", domain.Single("Envisat"))
	s.Set("product_string", domain.Single("ORAC"))
	s.Set("product_version", domain.Single("03.02"))
	s.Set("drs_id", domain.Single("esacci.AEROSOL.day.L3C.AOD.AATSR.Envisat.ORAC.03-02.r1"))
	return s
}

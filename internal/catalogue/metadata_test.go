package catalogue

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/opensearch"
)

func TestFacets_HarmonizedFieldsMerge(t *testing.T) {
	odd := &mockDescriptor{byURL: map[string]domain.FacetSet{
		"http://x/odd.xml": {
			"sensor_id": domain.Multiple([]string{"AATSR", "ATSR-2"}),
			"ecv":       domain.Single("AEROSOL"),
		},
	}}
	desc := &mockDescriptor{byURL: map[string]domain.FacetSet{
		"http://x/meta.xml": {
			"sensor_id": domain.Single("MERIS"),
			"ecv":       domain.Single("ignored"),
			"title":     domain.Single("ESA Aerosol CCI"),
		},
	}}

	a := NewAssembler(nil, odd, desc, nil, "cci", zap.NewNop())
	facets, err := a.Facets(context.Background(), domain.Feature{
		Identifier:  "ds-1",
		ODDURL:      "http://x/odd.xml",
		MetadataURL: "http://x/meta.xml",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// sensor_id is harmonized: the detail-document single joins the list.
	if got, want := facets.Values("sensor_id"), []string{"AATSR", "ATSR-2", "MERIS"}; !reflect.DeepEqual(got, want) {
		t.Errorf("sensor_id = %v, want %v", got, want)
	}
	// ecv is not harmonized: the description document wins.
	if got := facets.First("ecv"); got != "AEROSOL" {
		t.Errorf("ecv = %q, want AEROSOL", got)
	}
	// Fields only the detail document carries come through.
	if got := facets.First("title"); got != "ESA Aerosol CCI" {
		t.Errorf("title = %q", got)
	}
}

func TestFacets_DescriptorFailurePropagates(t *testing.T) {
	wantErr := errors.New("unreachable")
	a := NewAssembler(nil, &mockDescriptor{err: wantErr}, &mockDescriptor{}, nil, "cci", zap.NewNop())

	_, err := a.Facets(context.Background(), domain.Feature{Identifier: "ds-1"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected descriptor failure, got %v", err)
	}
}

func TestDatasetMetadata_NoFeatures(t *testing.T) {
	search := &mockSearch{
		fetchAllFn: func(_ context.Context, query opensearch.Query) ([]domain.Feature, error) {
			if query["uuid"] != "unknown-id" {
				t.Errorf("uuid = %q, want unknown-id", query["uuid"])
			}
			return nil, nil
		},
	}
	a := NewAssembler(search, &mockDescriptor{}, &mockDescriptor{}, &mockStructure{}, "cci", zap.NewNop())

	_, err := a.DatasetMetadata(context.Background(), "unknown-id")
	if !errors.Is(err, domain.ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
}

func TestDatasetMetadata_WithStructure(t *testing.T) {
	family := domain.Feature{
		Identifier: "ds-1",
		ODDURL:     "http://x/odd.xml",
		Variables: []domain.VariableSummary{
			{Name: "AOD550", Units: "1", LongName: "aerosol optical density"},
		},
	}
	granule := domain.Feature{
		Identifier:  "granule-1",
		RelatedURLs: map[string]string{"Opendap": "http://x/dap/file.nc"},
	}
	search := &mockSearch{
		fetchAllFn: func(_ context.Context, _ opensearch.Query) ([]domain.Feature, error) {
			return []domain.Feature{family}, nil
		},
		fetchOneFn: func(_ context.Context, query opensearch.Query, index int) (*domain.Feature, error) {
			if query["parentIdentifier"] != "ds-1" {
				t.Errorf("parentIdentifier = %q, want ds-1", query["parentIdentifier"])
			}
			if index != 1 {
				t.Errorf("index = %d, want 1", index)
			}
			return &granule, nil
		},
	}
	odd := &mockDescriptor{byURL: map[string]domain.FacetSet{
		"http://x/odd.xml": {"ecv": domain.Single("AEROSOL")},
	}}
	structure := &mockStructure{
		dims: map[string]int{"time": 1, "lat": 360, "lon": 720},
		vars: map[string]domain.VariableInfo{
			"AOD550": {DataType: "Float32", Dimensions: []string{"time", "lat", "lon"}},
		},
		attrs: domain.Attributes{
			domain.GlobalAttributes: domain.Attributes{"title": "ESA Aerosol CCI"},
		},
	}

	a := NewAssembler(search, odd, &mockDescriptor{}, structure, "cci", zap.NewNop())
	md, err := a.DatasetMetadata(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if structure.lastEndpoint != "http://x/dap/file.nc" {
		t.Errorf("endpoint = %q", structure.lastEndpoint)
	}
	if md.Dimensions["lat"] != 360 {
		t.Errorf("lat = %d, want 360", md.Dimensions["lat"])
	}
	aod := md.Variables["AOD550"]
	if aod.DataType != "Float32" {
		t.Errorf("AOD550 type = %q", aod.DataType)
	}
	if aod.LongName != "aerosol optical density" || aod.Units != "1" {
		t.Errorf("AOD550 summary not merged: %+v", aod)
	}
	if md.Attributes.Container(domain.GlobalAttributes) == nil {
		t.Error("global attributes missing")
	}
	if md.Fields.First("ecv") != "AEROSOL" {
		t.Errorf("ecv = %q", md.Fields.First("ecv"))
	}
}

func TestDatasetMetadata_StructureFailureDegrades(t *testing.T) {
	family := domain.Feature{
		Identifier: "ds-1",
		Variables:  []domain.VariableSummary{{Name: "AOD550"}},
	}
	granule := domain.Feature{
		RelatedURLs: map[string]string{"Opendap": "http://x/dap/file.nc"},
	}
	search := &mockSearch{
		fetchAllFn: func(_ context.Context, _ opensearch.Query) ([]domain.Feature, error) {
			return []domain.Feature{family}, nil
		},
		fetchOneFn: func(_ context.Context, _ opensearch.Query, _ int) (*domain.Feature, error) {
			return &granule, nil
		},
	}
	structure := &mockStructure{structureErr: errors.New("endpoint down")}

	a := NewAssembler(search, &mockDescriptor{}, &mockDescriptor{}, structure, "cci", zap.NewNop())
	md, err := a.DatasetMetadata(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("structural failures should degrade, got %v", err)
	}
	if len(md.Dimensions) != 0 || len(md.Variables) != 0 {
		t.Errorf("expected empty layout, got %+v", md)
	}
}

func TestDatasetMetadata_NoVariablesSkipsStructure(t *testing.T) {
	fetchOneCalled := false
	search := &mockSearch{
		fetchAllFn: func(_ context.Context, _ opensearch.Query) ([]domain.Feature, error) {
			return []domain.Feature{{Identifier: "ds-1"}}, nil
		},
		fetchOneFn: func(_ context.Context, _ opensearch.Query, _ int) (*domain.Feature, error) {
			fetchOneCalled = true
			return nil, nil
		},
	}

	a := NewAssembler(search, &mockDescriptor{}, &mockDescriptor{}, &mockStructure{}, "cci", zap.NewNop())
	if _, err := a.DatasetMetadata(context.Background(), "ds-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetchOneCalled {
		t.Error("a family without variables should not read structure")
	}
}

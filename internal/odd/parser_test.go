package odd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/domain"
)

const descriptionDoc = `<?xml version="1.0" encoding="UTF-8"?>
<os:OpenSearchDescription xmlns:os="http://a9.com/-/spec/opensearch/1.1/"
                          xmlns:param="http://a9.com/-/spec/opensearch/extensions/parameters/1.0/">
  <os:Url type="application/geo+json" template="http://x/request?q={searchTerms}">
    <param:Parameter name="ecv">
      <param:Option value="AEROSOL" label="AEROSOL"/>
    </param:Parameter>
    <param:Parameter name="sensor">
      <param:Option value="AATSR" label="AATSR"/>
      <param:Option value="ATSR-2" label="ATSR-2"/>
    </param:Parameter>
    <param:Parameter name="frequency">
      <param:Option value="day" label="day"/>
    </param:Parameter>
    <param:Parameter name="searchTerms"/>
    <param:Parameter name="unknownThing">
      <param:Option value="ignored"/>
    </param:Parameter>
  </os:Url>
</os:OpenSearchDescription>`

func TestParse(t *testing.T) {
	facets, err := Parse([]byte(descriptionDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f := facets["ecv"]; f.IsMultiple() || f.First() != "AEROSOL" {
		t.Errorf("ecv = %+v, want single AEROSOL", f)
	}
	if got, want := facets.Values("sensor_id"), []string{"AATSR", "ATSR-2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("sensor_id = %v, want %v", got, want)
	}
	if f := facets["time_frequency"]; f.IsMultiple() || f.First() != "day" {
		t.Errorf("time_frequency = %+v, want single day", f)
	}
	if _, ok := facets["unknownThing"]; ok {
		t.Error("undeclared parameter should be ignored")
	}
	if _, ok := facets["searchTerms"]; ok {
		t.Error("parameter without options should be absent")
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("<unclosed"))
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestFetch_EmptyURL(t *testing.T) {
	f := NewFetcher(nil, zap.NewNop())
	facets, err := f.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facets) != 0 {
		t.Errorf("expected empty facet set, got %v", facets)
	}
}

func TestFetch_ParseFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "not xml at all")
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), zap.NewNop())
	facets, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("parse failures should degrade, got %v", err)
	}
	if len(facets) != 0 {
		t.Errorf("expected empty facet set, got %v", facets)
	}
}

func TestFetch_TransportFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestFetch_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, descriptionDoc)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), zap.NewNop())
	facets, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facets.First("ecv") != "AEROSOL" {
		t.Errorf("ecv = %q, want AEROSOL", facets.First("ecv"))
	}
}

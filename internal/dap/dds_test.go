package dap

import (
	"reflect"
	"testing"
)

const structureDump = `Dataset {
    Float64 time[time = 1];
    Float32 lat[lat = 360];
    Float32 lon[lon = 720];
    Float32 AOD550[time = 1][lat = 360][lon = 720];
    Int16 pixel_count[time = 1][lat = 360][lon = 720];
    Float64 time_bnds[time = 1][bnds = 2];
} esacci.AEROSOL.day;`

func TestParseDDS(t *testing.T) {
	dims, vars := ParseDDS(structureDump)

	wantDims := map[string]int{"time": 1, "lat": 360, "lon": 720, "bnds": 2}
	if !reflect.DeepEqual(dims, wantDims) {
		t.Errorf("dims = %v, want %v", dims, wantDims)
	}

	aod, ok := vars["AOD550"]
	if !ok {
		t.Fatal("AOD550 missing from variables")
	}
	if aod.DataType != "Float32" {
		t.Errorf("AOD550 type = %q, want Float32", aod.DataType)
	}
	if want := []string{"time", "lat", "lon"}; !reflect.DeepEqual(aod.Dimensions, want) {
		t.Errorf("AOD550 dims = %v, want %v", aod.Dimensions, want)
	}

	if lat, ok := vars["lat"]; !ok || lat.DataType != "Float32" {
		t.Errorf("lat = %+v, want Float32 axis variable", lat)
	}
	if pc, ok := vars["pixel_count"]; !ok || pc.DataType != "Int16" {
		t.Errorf("pixel_count = %+v, want Int16", pc)
	}
}

func TestParseDDS_FirstDeclarationWins(t *testing.T) {
	dump := `Dataset {
    Float32 v[lat = 10];
    Float64 v[lat = 20];
} x;`
	dims, vars := ParseDDS(dump)

	if dims["lat"] != 10 {
		t.Errorf("lat = %d, want first-seen 10", dims["lat"])
	}
	if vars["v"].DataType != "Float32" {
		t.Errorf("v type = %q, want first-seen Float32", vars["v"].DataType)
	}
}

func TestParseDDS_ScalarVariable(t *testing.T) {
	_, vars := ParseDDS("Dataset {\n    Int32 count;\n} x;")
	v, ok := vars["count"]
	if !ok {
		t.Fatal("count missing from variables")
	}
	if len(v.Dimensions) != 0 {
		t.Errorf("count dims = %v, want none", v.Dimensions)
	}
}

func TestParseDDS_Empty(t *testing.T) {
	dims, vars := ParseDDS("")
	if len(dims) != 0 || len(vars) != 0 {
		t.Errorf("expected empty maps, got %v / %v", dims, vars)
	}
}

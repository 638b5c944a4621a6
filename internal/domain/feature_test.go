package domain

import (
	"testing"
	"time"
)

func TestTimeFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  time.Time
	}{
		{
			"20100301120000-ESACCI-L3C_AEROSOL-AOD-MERIS_ENVISAT-fv2.30.nc",
			time.Date(2010, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			"ESACCI-SOILMOISTURE-201005151200.nc",
			time.Date(2010, 5, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			"ESACCI-OC-L3S-CHLOR_A-19970904.nc",
			time.Date(1997, 9, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			"ESACCI-GHG-L2-CO2-200301.nc",
			time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"ESACCI-PERMAFROST-2017.nc",
			time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		got, ok := TimeFromTitle(tt.title)
		if !ok {
			t.Errorf("TimeFromTitle(%q): no timestamp found", tt.title)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("TimeFromTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestTimeFromTitle_NoDigits(t *testing.T) {
	if _, ok := TimeFromTitle("no-digits-here.nc"); ok {
		t.Error("expected no timestamp in a digit-free title")
	}
}

func TestFeature_HasTimeRange(t *testing.T) {
	var f Feature
	if f.HasTimeRange() {
		t.Error("zero feature should have no time range")
	}

	f.StartTime = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	if f.HasTimeRange() {
		t.Error("feature with only a start should have no time range")
	}

	f.EndTime = time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC)
	if !f.HasTimeRange() {
		t.Error("feature with both bounds should have a time range")
	}
}

func TestFeature_OpendapURL(t *testing.T) {
	f := Feature{RelatedURLs: map[string]string{
		"Download": "http://data.example.com/file.nc",
		"Opendap":  "http://data.example.com/dap/file.nc",
	}}
	if got := f.OpendapURL(); got != "http://data.example.com/dap/file.nc" {
		t.Errorf("OpendapURL() = %q", got)
	}

	var empty Feature
	if empty.OpendapURL() != "" {
		t.Error("feature without related links should have no endpoint")
	}
}

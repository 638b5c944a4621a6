package dap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/climkit/ccidex/internal/domain"
)

const coordinatePreamble = `Dataset: esacci.AEROSOL.day
time[1]
953078400
lat[4]
-60.0, -20.0, 20.0, 60.0
lon[3]
-120.0, 0.0, 120.0
`

func TestParseCoordinates(t *testing.T) {
	axes, err := ParseCoordinates(coordinatePreamble)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := axes["time"], []float64{953078400}; !reflect.DeepEqual(got, want) {
		t.Errorf("time = %v, want %v", got, want)
	}
	if got, want := axes["lat"], []float64{-60, -20, 20, 60}; !reflect.DeepEqual(got, want) {
		t.Errorf("lat = %v, want %v", got, want)
	}
	if got, want := axes["lon"], []float64{-120, 0, 120}; !reflect.DeepEqual(got, want) {
		t.Errorf("lon = %v, want %v", got, want)
	}
}

func TestParseCoordinates_CountMismatch(t *testing.T) {
	_, err := ParseCoordinates("lat[3]\n-60.0, 60.0\n")
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseCoordinates_BadValue(t *testing.T) {
	_, err := ParseCoordinates("lat[2]\n-60.0, north\n")
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseCoordinates_IgnoresProse(t *testing.T) {
	axes, err := ParseCoordinates("some banner text\n\nlon[1]\n42.0\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(axes) != 1 {
		t.Errorf("axes = %v, want only lon", axes)
	}
}

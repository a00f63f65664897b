package geo

import (
	"math"
	"testing"
)

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestHaversine_SamePoint(t *testing.T) {
	d := Haversine(40.7128, -74.0060, 40.7128, -74.0060)
	if d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversine_NewYork_London(t *testing.T) {
	// NYC to London: ~5,570 km
	d := Haversine(40.7128, -74.0060, 51.5074, -0.1278)
	expected := 5_570_000.0
	if !almost(d, expected, 30_000) {
		t.Fatalf("want ~%.0fm, got %.0fm", expected, d)
	}
}

func TestHaversine_Antipodal(t *testing.T) {
	d := Haversine(0, 0, 0, 180)
	expected := math.Pi * EarthRadiusMeters
	if !almost(d, expected, 1) {
		t.Fatalf("want ~%.0fm, got %.0fm", expected, d)
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
	}
	for _, tt := range tests {
		if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestValidBounds(t *testing.T) {
	if !ValidBounds(10, 170, 20, -170) {
		t.Error("antimeridian box rejected")
	}
	if ValidBounds(20, 0, 10, 1) {
		t.Error("inverted latitude accepted")
	}
	if ValidBounds(0, 0, 91, 1) {
		t.Error("out of range corner accepted")
	}
}

package geo

import (
	"math"
	"testing"
)

func TestDistanceKM(t *testing.T) {
	// Balneário Camboriú to Itajaí city centers, roughly 10 km apart.
	got := DistanceKM(-26.9905, -48.6347, -26.9078, -48.6619)
	if math.Abs(got-9.6) > 1.0 {
		t.Fatalf("distance = %.2f km, expected about 9.6", got)
	}
}

func TestDistanceKM_SamePointIsZero(t *testing.T) {
	if d := DistanceKM(-26.99, -48.63, -26.99, -48.63); d != 0 {
		t.Fatalf("distance = %v, want 0", d)
	}
}

func TestFenceContains(t *testing.T) {
	fence := Fence{Lat: -26.9905, Lon: -48.6347, RadiusKM: 20}

	if !fence.Contains(-26.9905, -48.6347) {
		t.Fatal("fence center must be inside")
	}
	if !fence.Contains(-26.9078, -48.6619) {
		t.Fatal("point ~10 km away must be inside a 20 km fence")
	}
	// Florianópolis, ~80 km south.
	if fence.Contains(-27.5954, -48.5480) {
		t.Fatal("point ~80 km away must be outside a 20 km fence")
	}
}

package units

import (
	"math"
	"testing"
)

func TestAcresToSquareKm(t *testing.T) {
	got := AcresToSquareKm(1000)
	if math.Abs(got-4.0468564224) > 1e-9 {
		t.Errorf("AcresToSquareKm(1000) = %v", got)
	}
}

func TestAcresToSquareMiles(t *testing.T) {
	if got := AcresToSquareMiles(640); got != 1 {
		t.Errorf("AcresToSquareMiles(640) = %v, want 1", got)
	}
}

func TestSquareMetersToAcresRoundTrip(t *testing.T) {
	const acres = 832000.0
	back := SquareMetersToAcres(acres * SquareMetersPerAcre)
	if math.Abs(back-acres) > 1e-6 {
		t.Errorf("round trip drifted: %v", back)
	}
}

func TestFormatAcres(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2_150_000, "2.15M acres"},
		{832_000, "832k acres"},
		{512, "512 acres"},
	}
	for _, c := range cases {
		if got := FormatAcres(c.in); got != c.want {
			t.Errorf("FormatAcres(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

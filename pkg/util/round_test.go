package util

import (
	"math"
	"testing"
)

func TestRoundBMI(t *testing.T) {
	got := Round(85/(1.75*1.75), 2)
	if got != 27.76 {
		t.Fatalf("expected 27.76, got %v", got)
	}
}

func TestRoundTiesToEven(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.125, 2, 0.12},
		{0.375, 2, 0.38},
		{2.675, 2, 2.67}, // binary value sits just below the tie
		{0.5, 0, 0},
		{1.5, 0, 2},
		{0.12345, 3, 0.123},
	}
	for _, c := range cases {
		if got := Round(c.in, c.places); got != c.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", c.in, c.places, got, c.want)
		}
	}
}

func TestRoundNonFinite(t *testing.T) {
	if !math.IsNaN(Round(math.NaN(), 2)) {
		t.Fatalf("expected NaN passthrough")
	}
	if !math.IsInf(Round(math.Inf(1), 2), 1) {
		t.Fatalf("expected +Inf passthrough")
	}
}

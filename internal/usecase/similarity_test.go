package usecase

import (
	"math"
	"strings"
	"testing"
)

func TestNoopScorer(t *testing.T) {
	var s NoopScorer
	if s.Available() {
		t.Error("NoopScorer should not be available")
	}
	if got := s.Score("FLASH LIMP", "FLASH LIMP"); got != 0 {
		t.Errorf("Score() = %v, want 0", got)
	}
}

func TestWeightedRatioScorer(t *testing.T) {
	long := "BALDE PLASTICO RESISTENTE COM ALCA DE METAL E TAMPA SANREMO 20 LITROS"

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "FLASH LIMP", "FLASH LIMP", 100},
		{"empty side", "", "FLASH LIMP", 0},
		{"both empty", "", "", 0},
		{"one substitution", "ABC", "ABD", 200.0 / 3},
		{"one substitution in a longer word", "MUNDIAL", "MONDIAL", 600.0 / 7},
		{"nothing in common", "ABCD", "WXYZ", 0},
		{"reordered words", "LIMP FLASH", "FLASH LIMP", 95},
		{"embedded in a title", "MOP FLASH LIMP GIRATORIO", "FLASH LIMP", 90},
		{"embedded in a very long title", long, "SANREMO", 60},
	}

	var s WeightedRatioScorer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestWeightedRatioScorer_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"3M", "SCOTCH BRITE 3M ESPONJA"},
		{"NOVICA", "NOVICA"},
		{"A", strings.Repeat("B", 40)},
		{"EURO HOME", "EUROHOME"},
		{"MOP", "MOP MOP MOP"},
	}

	var s WeightedRatioScorer
	for _, p := range pairs {
		for _, order := range [][2]string{p, {p[1], p[0]}} {
			got := s.Score(order[0], order[1])
			if got < 0 || got > 100 || math.IsNaN(got) {
				t.Errorf("Score(%q, %q) = %v out of range", order[0], order[1], got)
			}
		}
	}
}

func TestWeightedRatioScorer_Symmetric(t *testing.T) {
	var s WeightedRatioScorer
	a, b := "VASSOURA NOVICA PELO MACIO", "NOVICA"
	if s.Score(a, b) != s.Score(b, a) {
		t.Errorf("Score not symmetric: %v vs %v", s.Score(a, b), s.Score(b, a))
	}
}

func TestRatio_SubstitutionCostsTwo(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"SAMSONG", "SAMSUNG", 600.0 / 7},
		{"FLASHLIMP", "FLASH LIMP", 1800.0 / 19},
		{"ABC", "ABC", 100},
		{"ABC", "XYZ", 0},
	}

	for _, tt := range tests {
		if got := ratio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPartialRatio_EdgeWindows(t *testing.T) {
	// the best window is the cut-off "FLAS" at the end of the longer string
	if got := partialRatio("FLASH", "XXXXXXFLAS"); math.Abs(got-800.0/9) > 1e-9 {
		t.Errorf("partialRatio() = %v, want %v", got, 800.0/9)
	}
	if got := partialRatio("LIMP", "XXLIMPXX"); got != 100 {
		t.Errorf("partialRatio() = %v, want 100", got)
	}
}

func TestLCSLength(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "ABC", 0},
		{"ABC", "ABC", 3},
		{"LIMP FLASH", "FLASH LIMP", 5},
		{"MUNDIAL", "MONDIAL", 6},
		{"NOVIÇA", "NOVICA", 5},
	}

	for _, tt := range tests {
		if got := lcsLength([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("lcsLength(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

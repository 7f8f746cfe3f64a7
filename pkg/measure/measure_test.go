package measure

import (
	"testing"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  int
	}{
		{"empty", "", 10, 1},
		{"fits", "Deploy", 10, 1},
		{"exact fit", "Deploy prod", 11, 1},
		{"wraps", "Deploy to production", 10, 2},
		{"three lines", "aaaa bbbb cccc", 4, 3},
		{"long word breaks", "abcdefghijkl", 5, 3},
		{"wide runes", "漢字漢字", 4, 2},
		{"zero width", "abc", 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lines(tt.text, tt.width); got != tt.want {
				t.Errorf("Lines(%q, %d) = %d, want %d", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestEstimatorMeasure(t *testing.T) {
	e := &Estimator{CharWidth: 10, LineHeight: 15}

	tests := []struct {
		label    string
		maxWidth float64
		want     float64
	}{
		{"Bake", 100, 15},
		{"Deploy to production", 100, 30},
		{"Bake\nx\nx", 100, 45},
		{"", 100, 15},
	}
	for _, tt := range tests {
		got, err := e.Measure(tt.label, tt.maxWidth)
		if err != nil {
			t.Fatalf("Measure(%q) error: %v", tt.label, err)
		}
		if got != tt.want {
			t.Errorf("Measure(%q, %v) = %v, want %v", tt.label, tt.maxWidth, got, tt.want)
		}
	}

	if _, err := e.Measure("x", 0); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := (&Estimator{}).Measure("x", 100); err == nil {
		t.Error("expected error for zero-sized estimator")
	}
}

func TestNewEstimator(t *testing.T) {
	e := NewEstimator(0)
	if e.CharWidth != DefaultFontSize*charWidthRatio || e.LineHeight != DefaultFontSize*lineHeightRatio {
		t.Errorf("NewEstimator(0) = %+v", e)
	}
	if e := NewEstimator(20); e.LineHeight != 25 {
		t.Errorf("LineHeight = %v, want 25", e.LineHeight)
	}
}

func TestFixed(t *testing.T) {
	m := Fixed(10)
	if h, _ := m("one", 50); h != 10 {
		t.Errorf("Fixed one line = %v", h)
	}
	if h, _ := m("one\nx", 50); h != 20 {
		t.Errorf("Fixed two lines = %v", h)
	}
}

// Package measure estimates the rendered height of stage labels without a
// browser.
//
// Labels are wrapped word by word at the available width, using terminal
// cell widths from go-runewidth as a proxy for glyph widths: wide East Asian
// characters count double and combining marks count zero. The estimate is
// deterministic, which keeps layouts cacheable.
package measure

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	// DefaultFontSize is the label font size in pixels.
	DefaultFontSize = 12.0

	charWidthRatio  = 0.55 // average glyph advance relative to font size
	lineHeightRatio = 1.25
)

// Estimator measures labels by word wrapping.
type Estimator struct {
	CharWidth  float64 // width of one cell in pixels
	LineHeight float64 // height of one line in pixels
}

// NewEstimator returns an estimator for the given font size. Non-positive
// sizes use DefaultFontSize.
func NewEstimator(fontSize float64) *Estimator {
	if fontSize <= 0 || math.IsNaN(fontSize) || math.IsInf(fontSize, 0) {
		fontSize = DefaultFontSize
	}
	return &Estimator{
		CharWidth:  fontSize * charWidthRatio,
		LineHeight: fontSize * lineHeightRatio,
	}
}

// Measure returns the height of label wrapped at maxWidth. Every "\n"
// starts a new line, and an empty label is one line tall.
func (e *Estimator) Measure(label string, maxWidth float64) (float64, error) {
	if e.CharWidth <= 0 || e.LineHeight <= 0 {
		return 0, fmt.Errorf("measure: estimator needs positive char width and line height")
	}
	if math.IsNaN(maxWidth) || maxWidth <= 0 {
		return 0, fmt.Errorf("measure: invalid max width %v", maxWidth)
	}
	cells := max(1, int(maxWidth/e.CharWidth))
	lines := 0
	for _, para := range strings.Split(label, "\n") {
		lines += Lines(para, cells)
	}
	return float64(lines) * e.LineHeight, nil
}

// Lines returns how many lines text needs when wrapped at width cells.
// Words longer than a line are broken across lines.
func Lines(text string, width int) int {
	if width < 1 {
		width = 1
	}
	lines, used := 1, 0
	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		switch {
		case used == 0:
		case used+1+w <= width:
			used++ // separating space
		default:
			lines++
			used = 0
		}
		for w > width-used {
			w -= width - used
			lines++
			used = 0
		}
		used += w
	}
	return lines
}

// Fixed returns a measurement that gives every label the same height per
// line. It is useful in tests and for previews.
func Fixed(lineHeight float64) func(label string, maxWidth float64) (float64, error) {
	return func(label string, _ float64) (float64, error) {
		return float64(strings.Count(label, "\n")+1) * lineHeight, nil
	}
}

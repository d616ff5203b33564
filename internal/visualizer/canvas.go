package visualizer

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint8{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

type layer uint8

const (
	layerFreq layer = iota
	layerWave
)

// Canvas is a two-layer dot canvas drawn with Braille characters. Each
// terminal cell holds a 2x4 grid of dots, so a canvas of cols x rows cells
// is cols*2 dots wide and rows*4 dots tall.
type Canvas struct {
	cols, rows int
	cells      [2][]uint8
}

// NewCanvas allocates a canvas of cols x rows cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize reallocates the canvas. The contents are cleared.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	for l := range c.cells {
		c.cells[l] = make([]uint8, c.cols*c.rows)
	}
}

// Cells returns the size in terminal cells.
func (c *Canvas) Cells() (cols, rows int) { return c.cols, c.rows }

// Dots returns the size in dots.
func (c *Canvas) Dots() (w, h int) { return c.cols * 2, c.rows * 4 }

// Clear erases both layers.
func (c *Canvas) Clear() {
	for l := range c.cells {
		clear(c.cells[l])
	}
}

func (c *Canvas) set(l layer, x, y int) {
	if x < 0 || y < 0 || x >= c.cols*2 || y >= c.rows*4 {
		return
	}
	c.cells[l][(y/4)*c.cols+x/2] |= 1 << brailleBits[x%2][y%4]
}

// line draws a Bresenham line of the given thickness in dots.
func (c *Canvas) line(l layer, x0, y0, x1, y1, width int) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	top := -(width - 1) / 2

	for {
		for k := range max(width, 1) {
			c.set(l, x0, y0+top+k)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Bars fills the step outline through (xs[i], ys[i]) down to the bottom
// edge: bar i spans from xs[i-1] (0 for the first bar) to xs[i] at height
// ys[i].
func (c *Canvas) Bars(xs, ys []float64) {
	_, h := c.Dots()
	n := min(len(xs), len(ys))
	left := 0.0
	for i := range n {
		x0 := int(math.Round(left))
		x1 := int(math.Round(xs[i]))
		top := int(math.Round(ys[i]))
		for x := x0; x < x1; x++ {
			for y := max(top, 0); y < h; y++ {
				c.set(layerFreq, x, y)
			}
		}
		left = xs[i]
	}
}

// Curve strokes the Bézier segments on the wave layer.
func (c *Canvas) Curve(segs []Segment, width int) {
	for _, s := range segs {
		// One step per dot of horizontal travel keeps the stroke connected.
		steps := max(1, int(math.Ceil(math.Abs(s.To.X-s.From.X))))
		prev := s.From
		for k := 1; k <= steps; k++ {
			p := s.At(float64(k) / float64(steps))
			c.line(layerWave,
				int(math.Round(prev.X)), int(math.Round(prev.Y)),
				int(math.Round(p.X)), int(math.Round(p.Y)), width)
			prev = p
		}
	}
}

// Render draws the canvas. Cells holding wave dots take the wave style,
// cells holding only bar dots the bar style.
func (c *Canvas) Render(freq, wave lipgloss.Style) string {
	var out strings.Builder
	var run strings.Builder
	runLayer := -1
	flush := func() {
		if run.Len() == 0 {
			return
		}
		switch layer(runLayer) {
		case layerWave:
			out.WriteString(wave.Render(run.String()))
		case layerFreq:
			out.WriteString(freq.Render(run.String()))
		}
		run.Reset()
	}

	for r := range c.rows {
		if r > 0 {
			flush()
			out.WriteByte('\n')
		}
		for col := range c.cols {
			i := r*c.cols + col
			f, w := c.cells[layerFreq][i], c.cells[layerWave][i]
			cur := -1
			switch {
			case w != 0:
				cur = int(layerWave)
			case f != 0:
				cur = int(layerFreq)
			}
			if cur != runLayer {
				flush()
				runLayer = cur
			}
			if cur < 0 {
				out.WriteByte(' ')
				continue
			}
			run.WriteRune(rune(0x2800 | int(f|w)))
		}
	}
	flush()
	return out.String()
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

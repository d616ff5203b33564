package visualizer

// Point is a position in dot coordinates.
type Point struct{ X, Y float64 }

// Segment is a cubic Bézier from From to To with control points C1 and C2.
type Segment struct {
	From, C1, C2, To Point
}

// CatmullRom converts the Catmull-Rom spline through the points (xs[i],
// ys[i]) into cubic Bézier segments, appending them to dst. The end points
// are repeated to close the spline. Fewer than three points yield no
// segments.
func CatmullRom(dst []Segment, xs, ys []float64) []Segment {
	n := min(len(xs), len(ys))
	if n < 3 {
		return dst[:0]
	}
	pt := func(i int) Point {
		i = max(0, min(i, n-1))
		return Point{xs[i], ys[i]}
	}
	dst = dst[:0]
	for i := 0; i < n-1; i++ {
		a, b, c, d := pt(i-1), pt(i), pt(i+1), pt(i+2)
		dst = append(dst, Segment{
			From: b,
			C1:   Point{(-a.X + 6*b.X + c.X) / 6, (-a.Y + 6*b.Y + c.Y) / 6},
			C2:   Point{(b.X + 6*c.X - d.X) / 6, (b.Y + 6*c.Y - d.Y) / 6},
			To:   c,
		})
	}
	return dst
}

// At evaluates the segment at t in [0,1].
func (s Segment) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*s.From.X + b*s.C1.X + c*s.C2.X + d*s.To.X,
		Y: a*s.From.Y + b*s.C1.Y + c*s.C2.Y + d*s.To.Y,
	}
}

package stroke

import (
	"iter"
	"math"
)

type Point struct {
	X float64
	Y float64
}

func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Interpolate yields the points needed to fill the gap between two samples
// with stamps of the given radius: round(dist/radius) points at uniform steps
// from just past from up to and including to. Nothing is yielded when the
// points coincide, are closer than half a radius, or the radius is not
// positive.
func Interpolate(radius float64, from, to Point) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		if radius <= 0 {
			return
		}
		n := int(math.Round(from.Dist(to) / radius))
		if n <= 0 {
			return
		}
		dx := (to.X - from.X) / float64(n)
		dy := (to.Y - from.Y) / float64(n)
		for i := 1; i <= n; i++ {
			p := Point{X: from.X + dx*float64(i), Y: from.Y + dy*float64(i)}
			if i == n {
				p = to
			}
			if !yield(p) {
				return
			}
		}
	}
}

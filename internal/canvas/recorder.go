package canvas

import (
	"slices"

	"github.com/DoyleJ11/sketchroom/internal/stroke"
)

type Dot struct {
	Color  string
	Radius float64
	At     stroke.Point
}

// Recorder is an in-memory Surface. It keeps every dot in paint order.
type Recorder struct {
	dots []Dot
}

func (r *Recorder) FillCircle(color string, radius float64, at stroke.Point) {
	r.dots = append(r.dots, Dot{Color: color, Radius: radius, At: at})
}

func (r *Recorder) Clear() { r.dots = r.dots[:0] }

func (r *Recorder) Dots() []Dot { return slices.Clone(r.dots) }

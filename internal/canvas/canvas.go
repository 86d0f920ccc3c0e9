package canvas

import (
	"slices"

	"github.com/DoyleJ11/sketchroom/internal/stroke"
	"github.com/DoyleJ11/sketchroom/pkg/types"
)

// Surface is whatever the stamps end up painted on.
type Surface interface {
	FillCircle(color string, radius float64, at stroke.Point)
	Clear()
}

// Canvas is the ordered stamp history of one turn plus the pen position used
// to join consecutive connected stamps.
type Canvas struct {
	surface Surface
	stamps  []types.Stamp
	last    *stroke.Point
}

func New(surface Surface) *Canvas {
	if surface == nil {
		surface = &Recorder{}
	}
	return &Canvas{surface: surface}
}

func (c *Canvas) Surface() Surface { return c.surface }

// Apply paints one stamp. A stamp that is not connected lifts the pen first,
// so no segment is drawn back to the previous stroke.
func (c *Canvas) Apply(s types.Stamp) {
	color := stroke.ColorName(s.Color)
	radius := stroke.RadiusPx(s.Radius)
	p := stroke.Point{X: float64(s.X), Y: float64(s.Y)}

	if !s.Connected {
		c.last = nil
	}
	c.surface.FillCircle(color, radius, p)
	if c.last != nil {
		for q := range stroke.Interpolate(radius, *c.last, p) {
			c.surface.FillCircle(color, radius, q)
		}
	}
	c.last = &p
	c.stamps = append(c.stamps, s)
}

// Replay clears the surface and paints stamps in emission order.
func (c *Canvas) Replay(stamps []types.Stamp) {
	c.Reset()
	for _, s := range stamps {
		c.Apply(s)
	}
}

func (c *Canvas) Reset() {
	c.surface.Clear()
	c.stamps = c.stamps[:0]
	c.last = nil
}

func (c *Canvas) Stamps() []types.Stamp {
	return slices.Clone(c.stamps)
}

func (c *Canvas) Len() int { return len(c.stamps) }

// Encode returns the canvas in the base64 form carried by STATE.
func (c *Canvas) Encode() string {
	return stroke.Encode(c.stamps)
}

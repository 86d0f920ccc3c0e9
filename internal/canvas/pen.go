package canvas

import (
	"math"

	"golang.org/x/time/rate"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

// Sender transmits a stamp; it must not block.
type Sender func(types.Stamp)

// Painter applies a stamp locally. *Canvas and room.State both satisfy it.
type Painter interface {
	Apply(types.Stamp)
}

// Pen turns local pointer events into stamps. Every event is painted locally;
// moves are transmitted at most at the limiter's rate and the remote side
// fills the gaps by interpolation.
type Pen struct {
	Color  uint8
	Radius uint8

	painter Painter
	send    Sender
	limiter *rate.Limiter
	down    bool
	pending *types.Stamp
}

// NewPen sends at most samplesPerSec moves per second; zero or less means
// every move is sent.
func NewPen(c Painter, send Sender, samplesPerSec float64) *Pen {
	limit := rate.Inf
	if samplesPerSec > 0 {
		limit = rate.Limit(samplesPerSec)
	}
	return &Pen{painter: c, send: send, limiter: rate.NewLimiter(limit, 1)}
}

func (p *Pen) Down(x, y float64) {
	s := p.stamp(x, y, false)
	p.painter.Apply(s)
	p.send(s)
	p.down = true
	p.pending = nil
}

func (p *Pen) Move(x, y float64) {
	if !p.down {
		return
	}
	s := p.stamp(x, y, true)
	p.painter.Apply(s)
	if p.limiter.Allow() {
		p.send(s)
		p.pending = nil
		return
	}
	p.pending = &s
}

// Up flushes a throttled final move so the remote stroke ends where the
// local one did.
func (p *Pen) Up() {
	if p.pending != nil {
		p.send(*p.pending)
		p.pending = nil
	}
	p.down = false
}

func (p *Pen) IsDown() bool { return p.down }

func (p *Pen) stamp(x, y float64, connected bool) types.Stamp {
	return types.Stamp{
		Color:     p.Color,
		Radius:    p.Radius,
		X:         clampCoord(x),
		Y:         clampCoord(y),
		Connected: connected,
	}
}

func clampCoord(v float64) uint16 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(math.Round(v))
}

package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/sketchroom/internal/stroke"
	"github.com/DoyleJ11/sketchroom/pkg/types"
)

func TestCanvas_ConnectedStampFillsGap(t *testing.T) {
	rec := &Recorder{}
	c := New(rec)

	c.Apply(types.Stamp{Color: 3, Radius: 0, X: 0, Y: 0})
	c.Apply(types.Stamp{Color: 3, Radius: 0, X: 40, Y: 0, Connected: true})

	dots := rec.Dots()
	// one dot per stamp plus round(40/4) interpolated
	require.Len(t, dots, 12)
	for _, d := range dots {
		assert.Equal(t, "red", d.Color)
		assert.Equal(t, 4.0, d.Radius)
	}
	assert.Equal(t, stroke.Point{X: 40, Y: 0}, dots[len(dots)-1].At)
}

func TestCanvas_PenLiftDoesNotJoin(t *testing.T) {
	rec := &Recorder{}
	c := New(rec)

	c.Apply(types.Stamp{X: 0, Y: 0})
	c.Apply(types.Stamp{X: 400, Y: 400})

	assert.Len(t, rec.Dots(), 2)
}

func TestCanvas_ReplayMatchesLiveDrawing(t *testing.T) {
	stamps := []types.Stamp{
		{Color: 1, Radius: 2, X: 10, Y: 10},
		{Color: 1, Radius: 2, X: 60, Y: 10, Connected: true},
		{Color: 4, Radius: 5, X: 300, Y: 300},
		{Color: 4, Radius: 5, X: 300, Y: 500, Connected: true},
	}

	live := &Recorder{}
	lc := New(live)
	for _, s := range stamps {
		lc.Apply(s)
	}

	replayed := &Recorder{}
	rc := New(replayed)
	rc.Apply(types.Stamp{X: 1, Y: 1}) // stale content must be discarded
	rc.Replay(stamps)

	assert.Equal(t, live.Dots(), replayed.Dots())
	assert.Equal(t, stamps, rc.Stamps())
}

func TestCanvas_EncodeRoundTrips(t *testing.T) {
	c := New(nil)
	c.Apply(types.Stamp{Color: 2, Radius: 1, X: 700, Y: 900})
	out, err := stroke.Decode(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, c.Stamps(), out)
}

func TestPen_ThrottlesMovesAndFlushesOnUp(t *testing.T) {
	var sent []types.Stamp
	c := New(nil)
	p := NewPen(c, func(s types.Stamp) { sent = append(sent, s) }, 0.001)
	p.Color, p.Radius = 5, 1

	p.Move(1, 1) // pen is up: ignored
	p.Down(10, 10)
	p.Move(20, 10) // first token
	p.Move(30, 10) // throttled
	p.Move(40, 10) // throttled, becomes pending
	p.Up()

	require.Len(t, sent, 3)
	assert.False(t, sent[0].Connected)
	assert.Equal(t, uint16(20), sent[1].X)
	assert.Equal(t, uint16(40), sent[2].X)
	assert.True(t, sent[2].Connected)
	assert.Equal(t, 4, c.Len(), "every event is painted locally")
	assert.False(t, p.IsDown())
}

func TestPen_UnthrottledSendsEverything(t *testing.T) {
	n := 0
	p := NewPen(New(nil), func(types.Stamp) { n++ }, 0)
	p.Down(0, 0)
	for i := 1; i <= 10; i++ {
		p.Move(float64(i*10), 0)
	}
	p.Up()
	assert.Equal(t, 11, n)
}

func TestClampCoord(t *testing.T) {
	assert.Equal(t, uint16(0), clampCoord(-5))
	assert.Equal(t, uint16(65535), clampCoord(1e9))
	assert.Equal(t, uint16(13), clampCoord(12.6))
}

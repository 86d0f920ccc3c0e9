package roomtest

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

// Peer is the server side of one joined socket.
type Peer struct {
	Player types.Player

	index int // owned by the room loop
	conn  *websocket.Conn
	out   chan []byte
	recv  chan types.Envelope
	done  chan struct{}
	once  sync.Once
}

func newPeer(conn *websocket.Conn, player types.Player) *Peer {
	return &Peer{
		Player: player,
		conn:   conn,
		out:    make(chan []byte, 64),
		recv:   make(chan types.Envelope, 64),
		done:   make(chan struct{}),
	}
}

func (p *Peer) enqueue(frame []byte) {
	select {
	case p.out <- frame:
	case <-p.done:
	default:
		// Slow reader; the frame is dropped like a real room would.
	}
}

func (p *Peer) stop() {
	p.once.Do(func() { close(p.done) })
}

func (p *Peer) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			_ = p.conn.Close(websocket.StatusGoingAway, "room closed")
			return
		case frame := <-p.out:
			wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			_ = p.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
		}
	}
}

// Send queues p for this peer only.
func (p *Peer) Send(pl types.Payload) {
	p.enqueue(mustEncode(pl))
}

// SendRaw queues frame verbatim.
func (p *Peer) SendRaw(frame []byte) {
	p.enqueue(slices.Clone(frame))
}

// Recv waits for the next envelope this peer sent.
func (p *Peer) Recv(t testing.TB, within time.Duration) types.Envelope {
	t.Helper()
	select {
	case env := <-p.recv:
		return env
	case <-time.After(within):
		t.Fatalf("timed out waiting for a message from %s", p.Player.Name)
		return types.Envelope{} // unreachable
	}
}

// Close ends the socket with a close handshake carrying code.
func (p *Peer) Close(code websocket.StatusCode, reason string) error {
	err := p.conn.Close(code, reason)
	p.stop()
	return err
}

// Abort drops the TCP connection without a close frame.
func (p *Peer) Abort() error {
	err := p.conn.CloseNow()
	p.stop()
	return err
}

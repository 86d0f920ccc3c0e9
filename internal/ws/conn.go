package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/sketchroom/internal/router"
	"github.com/DoyleJ11/sketchroom/pkg/types"
)

var ErrNotOpen = errors.New("connection is not open")
var ErrSendBufferFull = errors.New("send buffer full")

const (
	defaultReadLimit  = 4 << 20
	defaultSendBuffer = 64
	writeTimeout      = 3 * time.Second
)

type Options struct {
	Endpoint     string // ws:// or wss:// base, e.g. ws://localhost:8080
	RoomCode     string
	PlayerName   string
	SessionToken string

	Router   *router.Router
	Logger   *zap.Logger
	OnStatus func(Status) // called from the dispatch loop
	Dial     *websocket.DialOptions

	ReadLimit  int64
	SendBuffer int
}

// Transport events, produced by the reader and consumed by the dispatcher.
type event interface{ isEvent() }

type opened struct{}

type frame struct{ data []byte }

type closed struct {
	err    error
	status int // HTTP status when the handshake was refused
}

type failed struct{ err error }

func (opened) isEvent() {}
func (frame) isEvent()  {}
func (closed) isEvent() {}
func (failed) isEvent() {}

// Conn owns one room transport. Inbound frames are decoded and dispatched to
// the router strictly in arrival order from a single goroutine.
type Conn struct {
	opts   Options
	url    string
	logger *zap.Logger
	router *router.Router

	status  atomic.Int32
	closing atomic.Bool
	ws      atomic.Pointer[websocket.Conn]
	inbox   chan event
	outbox  chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// JoinURL builds <endpoint>/rooms/join?code=&name=&token=.
func JoinURL(endpoint, code, name, token string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/rooms/join"
	q := url.Values{}
	q.Set("code", code)
	q.Set("name", name)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect starts dialing in the background and returns immediately; progress
// is reported through Status and Options.OnStatus. The caller must Close the
// connection on every exit path.
func Connect(parent context.Context, opts Options) (*Conn, error) {
	u, err := JoinURL(opts.Endpoint, opts.RoomCode, opts.PlayerName, opts.SessionToken)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Router == nil {
		opts.Router = router.New(opts.Logger)
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Conn{
		opts:   opts,
		url:    u,
		logger: opts.Logger.Named("ws").With(zap.String("room", opts.RoomCode)),
		router: opts.Router,
		inbox:  make(chan event, 64),
		outbox: make(chan []byte, opts.SendBuffer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run()
	return c, nil
}

func (c *Conn) Router() *router.Router { return c.router }

func (c *Conn) Status() Status { return Status(c.status.Load()) }

// Done is closed once every goroutine owned by the connection has exited.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) run() {
	defer close(c.done)

	g, ctx := errgroup.WithContext(c.ctx)
	g.Go(func() error { return c.readLoop(ctx) })
	g.Go(func() error { return c.dispatchLoop(ctx) })
	g.Go(func() error { return c.writeLoop(ctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, errStopped) && !errors.Is(err, context.Canceled) {
		c.logger.Warn("connection stopped", zap.Error(err))
	}

	if conn := c.ws.Load(); conn != nil {
		_ = conn.CloseNow()
	}
}

var errStopped = errors.New("dispatch stopped")

// readLoop is the only sender on inbox and closes it after the terminal event.
func (c *Conn) readLoop(ctx context.Context) error {
	defer close(c.inbox)

	conn, resp, err := websocket.Dial(ctx, c.url, c.opts.Dial)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			c.push(ctx, closed{err: err, status: resp.StatusCode})
			return nil
		}
		c.push(ctx, failed{err: err})
		return nil
	}
	conn.SetReadLimit(c.opts.ReadLimit)
	c.ws.Store(conn)
	if ctx.Err() != nil {
		// Close raced the dial; make sure the socket does not outlive us.
		_ = conn.CloseNow()
		return nil
	}
	if !c.push(ctx, opened{}) {
		return nil
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Only a close frame ends the session cleanly; a bare EOF is a
			// dropped link.
			switch {
			case ctx.Err() != nil:
			case websocket.CloseStatus(err) != -1:
				c.push(ctx, closed{err: err})
			default:
				c.push(ctx, failed{err: err})
			}
			return nil
		}
		if !c.push(ctx, frame{data: data}) {
			return nil
		}
	}
}

func (c *Conn) push(ctx context.Context, ev event) bool {
	select {
	case c.inbox <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// dispatchLoop handles one event at a time; a handler runs to completion
// before the next frame is looked at.
func (c *Conn) dispatchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.inbox:
			if !ok {
				return errStopped
			}
			if ctx.Err() != nil {
				return nil
			}
			if c.closing.Load() {
				continue
			}
			c.handle(ev)
		}
	}
}

func (c *Conn) handle(ev event) {
	switch e := ev.(type) {
	case frame:
		env, err := types.DecodeEnvelope(e.data)
		if err != nil {
			c.logger.Warn("dropping malformed frame", zap.Error(err), zap.ByteString("frame", truncate(e.data, 256)))
			return
		}
		if c.closing.Load() {
			return
		}
		c.router.Dispatch(env)
		return
	case closed:
		c.logger.Info("transport closed", zap.Int("http_status", e.status), zap.Error(e.err))
	case failed:
		c.logger.Warn("transport error", zap.Error(e.err))
	case opened:
		c.logger.Info("transport opened")
	}
	c.transition(ev)
}

func (c *Conn) transition(ev event) {
	if c.closing.Load() {
		return
	}
	prev := c.Status()
	s := next(prev, ev)
	if s == prev {
		return
	}
	c.status.Store(int32(s))
	c.logger.Debug("status", zap.Stringer("from", prev), zap.Stringer("to", s))
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(s)
	}
}

func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-c.outbox:
			conn := c.ws.Load()
			if conn == nil {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, b)
			cancel()
			if err != nil && ctx.Err() == nil {
				c.logger.Warn("write failed", zap.Error(err))
			}
		}
	}
}

// Send transmits p without blocking. When the connection is not open, or the
// outbound buffer is full, the message is dropped and an error returned.
func (c *Conn) Send(p types.Payload) error {
	env, err := types.NewEnvelope(p)
	if err != nil {
		return err
	}
	return c.SendEnvelope(env)
}

func (c *Conn) SendEnvelope(env types.Envelope) error {
	if c.Status() != Opened || c.closing.Load() {
		c.logger.Debug("dropping send on unopened connection", zap.Stringer("code", env.Code), zap.Stringer("status", c.Status()))
		return ErrNotOpen
	}
	b, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Code, err)
	}
	select {
	case c.outbox <- b:
		return nil
	default:
		c.logger.Warn("dropping send, buffer full", zap.Stringer("code", env.Code))
		return ErrSendBufferFull
	}
}

// Close releases the transport exactly once. No handler or status callback
// starts after Close returns, but one already running on the dispatch
// goroutine finishes. Close does not wait, so handlers may call it; wait on
// Done for the goroutines to exit.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		if s := c.Status(); !s.Terminal() {
			c.status.Store(int32(Closed))
		}
		if conn := c.ws.Load(); conn != nil {
			err := conn.Close(websocket.StatusNormalClosure, "bye")
			if err != nil && !isAlreadyClosed(err) {
				c.closeErr = err
			}
		}
		c.cancel()
	})
	return c.closeErr
}

func isAlreadyClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

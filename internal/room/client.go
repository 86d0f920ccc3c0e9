package room

import (
	"context"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchroom/internal/canvas"
	"github.com/DoyleJ11/sketchroom/internal/router"
	"github.com/DoyleJ11/sketchroom/internal/ws"
	"github.com/DoyleJ11/sketchroom/pkg/types"
)

type ClientOptions struct {
	Endpoint     string
	RoomCode     string
	PlayerName   string
	SessionToken string

	Logger  *zap.Logger
	Surface canvas.Surface
	Dial    *websocket.DialOptions

	// State, when set, is bound instead of a fresh one so listeners can be
	// registered before the first change. Surface is then ignored.
	State *State
}

// Client is one joined room: its connection, the router fed by that
// connection, and the state the router keeps current.
type Client struct {
	state  *State
	router *router.Router
	conn   *ws.Conn
	subs   []*router.Subscription
	logger *zap.Logger
}

// Join subscribes a fresh State to a new router and starts connecting. The
// state is bound before the first frame can arrive.
func Join(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := router.New(opts.Logger.Named("router"))
	st := opts.State
	if st == nil {
		st = New(Options{Logger: opts.Logger, Surface: opts.Surface})
	}
	subs := st.Bind(r)

	conn, err := ws.Connect(ctx, ws.Options{
		Endpoint:     opts.Endpoint,
		RoomCode:     opts.RoomCode,
		PlayerName:   opts.PlayerName,
		SessionToken: opts.SessionToken,
		Router:       r,
		Logger:       opts.Logger,
		OnStatus:     st.SetStatus,
		Dial:         opts.Dial,
	})
	if err != nil {
		router.UnsubscribeAll(subs)
		return nil, err
	}
	return &Client{state: st, router: r, conn: conn, subs: subs, logger: opts.Logger}, nil
}

func (c *Client) State() *State { return c.state }

// Router accepts extra subscriptions, e.g. for OPTIONS or SAVE.
func (c *Client) Router() *router.Router { return c.router }

func (c *Client) Status() ws.Status { return c.conn.Status() }

func (c *Client) Done() <-chan struct{} { return c.conn.Done() }

func (c *Client) Send(p types.Payload) error { return c.conn.Send(p) }

// Say submits a guess or chat line.
func (c *Client) Say(text string) error {
	m, err := types.NewTextMsg(text)
	if err != nil {
		return err
	}
	return c.conn.Send(m)
}

func (c *Client) StartGame() error { return c.conn.Send(types.StartMsg{}) }

func (c *Client) Save() error { return c.conn.Send(types.SaveMsg{}) }

// Pen draws on the room canvas and sends each stamp as DRAW.
func (c *Client) Pen(samplesPerSec float64) *canvas.Pen {
	return canvas.NewPen(c.state, func(s types.Stamp) {
		if err := c.conn.Send(s); err != nil {
			c.logger.Debug("stamp not sent", zap.Error(err))
		}
	}, samplesPerSec)
}

// Close releases the connection and detaches the state. Safe to call more
// than once.
func (c *Client) Close() error {
	router.UnsubscribeAll(c.subs)
	err := c.conn.Close()
	c.state.SetStatus(c.conn.Status())
	return err
}

package roomtest

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

type roomMsg interface{ isRoomMsg() }

type join struct{ peer *Peer }

type leave struct{ peer *Peer }

type fromPeer struct {
	peer *Peer
	env  types.Envelope
}

type broadcast struct {
	frame  []byte
	except *Peer
}

type setState struct{ state types.StateMsg }

type getView struct{ reply chan View }

type shutdown struct{}

func (join) isRoomMsg()      {}
func (leave) isRoomMsg()     {}
func (fromPeer) isRoomMsg()  {}
func (broadcast) isRoomMsg() {}
func (setState) isRoomMsg()  {}
func (getView) isRoomMsg()   {}
func (shutdown) isRoomMsg()  {}

// Inbound is one envelope a peer sent to the room.
type Inbound struct {
	Player   types.Player
	Envelope types.Envelope
}

// View reflects the room's internal state without data races.
type View struct {
	Code  string
	Peers int
	State types.StateMsg
}

// Room is a minimal stand-in for a game room: it sends STATE on join,
// announces JOIN/LEAVE, turns TEXT into CHAT and relays DRAW. Everything a
// peer sends is also recorded for the test to inspect.
type Room struct {
	code     string
	settings types.Settings
	inbox    chan roomMsg
	state    types.StateMsg
	peers    []*Peer // index = player index; nil after leave
	joined   chan *Peer
	received chan Inbound
	ctx      context.Context
	cancel   context.CancelFunc
}

func newRoom(parent context.Context, code string, settings types.Settings) *Room {
	ctx, cancel := context.WithCancel(parent)
	rm := &Room{
		code:     code,
		settings: settings,
		inbox:    make(chan roomMsg, 64),
		state: types.StateMsg{
			Players:    []types.Player{},
			ScoreBoard: map[string]types.Score{},
			ChatLog:    []types.ChatMsg{},
		},
		joined:   make(chan *Peer, 16),
		received: make(chan Inbound, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
	go rm.loop()
	return rm
}

func (rm *Room) Code() string { return rm.code }

func (rm *Room) Settings() types.Settings { return rm.settings }

func (rm *Room) loop() {
	for {
		select {
		case <-rm.ctx.Done():
			rm.shutdown()
			return

		case m := <-rm.inbox:
			switch msg := m.(type) {
			case join:
				msg.peer.index = len(rm.peers)
				rm.peers = append(rm.peers, msg.peer)
				rm.state.Players = append(rm.state.Players, msg.peer.Player)
				msg.peer.enqueue(mustEncode(rm.state))
				rm.broadcast(mustEncode(types.JoinMsg{PlayerIndex: msg.peer.index, Player: msg.peer.Player}), msg.peer)
				rm.joined <- msg.peer

			case leave:
				i := slices.Index(rm.peers, msg.peer)
				if i < 0 {
					break
				}
				rm.peers[i] = nil
				rm.state.Players = slices.DeleteFunc(rm.state.Players, func(p types.Player) bool { return p.ID == msg.peer.Player.ID })
				rm.broadcast(mustEncode(types.LeaveMsg{PlayerIndex: i, Player: msg.peer.Player}), nil)

			case fromPeer:
				select {
				case rm.received <- Inbound{Player: msg.peer.Player, Envelope: msg.env}:
				default:
				}
				rm.react(msg.peer, msg.env)

			case broadcast:
				rm.broadcast(msg.frame, msg.except)

			case setState:
				players := rm.state.Players
				rm.state = msg.state
				rm.state.Players = players

			case getView:
				msg.reply <- View{Code: rm.code, Peers: rm.count(), State: rm.state}

			case shutdown:
				rm.shutdown()
				return
			}
		}
	}
}

func (rm *Room) react(from *Peer, env types.Envelope) {
	switch env.Code {
	case types.TextCode:
		m, err := types.DecodeAs[types.TextMsg](env)
		if err != nil {
			return
		}
		chat := types.ChatMsg{Player: from.Player, Text: m.Text}
		rm.state.ChatLog = append(rm.state.ChatLog, chat)
		rm.broadcast(mustEncode(chat), nil)
	case types.DrawCode:
		if b, err := env.Marshal(); err == nil {
			rm.broadcast(b, from)
		}
	}
}

func (rm *Room) broadcast(frame []byte, except *Peer) {
	for _, p := range rm.peers {
		if p != nil && p != except {
			p.enqueue(frame)
		}
	}
}

func (rm *Room) count() int {
	n := 0
	for _, p := range rm.peers {
		if p != nil {
			n++
		}
	}
	return n
}

func (rm *Room) shutdown() {
	for i, p := range rm.peers {
		if p != nil {
			p.stop()
			rm.peers[i] = nil
		}
	}
	rm.cancel()
}

func (rm *Room) send(m roomMsg) {
	select {
	case rm.inbox <- m:
	case <-rm.ctx.Done():
	}
}

// Broadcast sends p to every connected peer.
func (rm *Room) Broadcast(p types.Payload) {
	rm.send(broadcast{frame: mustEncode(p)})
}

// BroadcastRaw sends frame verbatim, for malformed-input tests.
func (rm *Room) BroadcastRaw(frame []byte) {
	rm.send(broadcast{frame: slices.Clone(frame)})
}

// SetState replaces the snapshot sent to future joiners. Players are kept.
func (rm *Room) SetState(s types.StateMsg) {
	rm.send(setState{state: s})
}

func (rm *Room) View() View {
	reply := make(chan View, 1)
	rm.send(getView{reply: reply})
	select {
	case v := <-reply:
		return v
	case <-rm.ctx.Done():
		return View{Code: rm.code}
	}
}

// NextPeer waits for the next socket to join the room.
func (rm *Room) NextPeer(t testing.TB, within time.Duration) *Peer {
	t.Helper()
	select {
	case p := <-rm.joined:
		return p
	case <-time.After(within):
		t.Fatalf("timed out waiting for a peer to join %s", rm.code)
		return nil // unreachable
	}
}

// Recv waits for the next envelope any peer sent to the room.
func (rm *Room) Recv(t testing.TB, within time.Duration) Inbound {
	t.Helper()
	select {
	case in := <-rm.received:
		return in
	case <-time.After(within):
		t.Fatalf("timed out waiting for a message in %s", rm.code)
		return Inbound{} // unreachable
	}
}

func mustEncode(p types.Payload) []byte {
	b, err := types.EncodeEnvelope(p)
	if err != nil {
		panic(err)
	}
	return b
}

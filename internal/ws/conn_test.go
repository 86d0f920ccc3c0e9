package ws

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/sketchroom/internal/roomtest"
	"github.com/DoyleJ11/sketchroom/internal/router"
	"github.com/DoyleJ11/sketchroom/pkg/types"
)

const within = 2 * time.Second

func recvStatus(t *testing.T, ch <-chan Status) Status {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(within):
		t.Fatalf("timed out waiting for status")
		return Unopened // unreachable
	}
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero // unreachable
	}
}

func connect(t *testing.T, endpoint, code string, r *router.Router) (*Conn, <-chan Status) {
	t.Helper()
	statuses := make(chan Status, 8)
	c, err := Connect(context.Background(), Options{
		Endpoint:     endpoint,
		RoomCode:     code,
		PlayerName:   "ann",
		SessionToken: "tok-ann",
		Router:       r,
		Logger:       zaptest.NewLogger(t),
		OnStatus:     func(s Status) { statuses <- s },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, statuses
}

func TestJoinURL(t *testing.T) {
	cases := []struct {
		name     string
		endpoint string
		want     string
		wantErr  bool
	}{
		{name: "ws", endpoint: "ws://h:1", want: "ws://h:1/rooms/join?code=ab+c&name=Zo%C3%AB+%26+co&token=t%2F1"},
		{name: "trailing slash", endpoint: "ws://h:1/api/", want: "ws://h:1/api/rooms/join?code=ab+c&name=Zo%C3%AB+%26+co&token=t%2F1"},
		{name: "http upgraded", endpoint: "https://h", want: "wss://h/rooms/join?code=ab+c&name=Zo%C3%AB+%26+co&token=t%2F1"},
		{name: "bad scheme", endpoint: "ftp://h", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := JoinURL(tc.endpoint, "ab c", "Zoë & co", "t/1")
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		from Status
		ev   event
		want Status
	}{
		{Unopened, opened{}, Opened},
		{Unopened, closed{}, NoExist},
		{Opened, closed{}, Closed},
		{Unopened, failed{}, Error},
		{Opened, failed{}, Error},
		{Closed, opened{}, Closed},
		{NoExist, closed{}, NoExist},
		{Opened, frame{}, Opened},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%T", tc.from, tc.ev), func(t *testing.T) {
			assert.Equal(t, tc.want, next(tc.from, tc.ev))
		})
	}
}

func TestConnect_OpensAndReceivesSnapshot(t *testing.T) {
	srv := roomtest.NewServer(t)
	srv.AddRoom("room1")

	r := router.New(nil)
	snapshots := make(chan types.StateMsg, 1)
	router.On(r, func(m types.StateMsg) { snapshots <- m })

	c, statuses := connect(t, srv.WSURL(), "room1", r)
	assert.Equal(t, Opened, recvStatus(t, statuses))
	assert.Equal(t, Opened, c.Status())

	snap := recv(t, snapshots)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, types.Player{ID: "tok-ann", Name: "ann"}, snap.Players[0])
}

func TestConnect_UnknownRoomIsNoExist(t *testing.T) {
	srv := roomtest.NewServer(t)

	c, statuses := connect(t, srv.WSURL(), "missing", nil)
	assert.Equal(t, NoExist, recvStatus(t, statuses))
	<-c.Done()
	assert.ErrorIs(t, c.Send(types.SaveMsg{}), ErrNotOpen)
}

func TestConnect_RefusedIsError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c, statuses := connect(t, "ws://"+addr, "room1", nil)
	assert.Equal(t, Error, recvStatus(t, statuses))
	<-c.Done()
}

func TestSend_BeforeOpenIsDropped(t *testing.T) {
	// Accepts TCP but never answers the handshake, so the dial stays pending.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	c, _ := connect(t, "ws://"+ln.Addr().String(), "room1", nil)
	assert.Equal(t, Unopened, c.Status())
	assert.ErrorIs(t, c.Send(types.TextMsg{Text: "hello"}), ErrNotOpen)
}

func TestSend_ReachesRoomInOrder(t *testing.T) {
	srv := roomtest.NewServer(t)
	rm := srv.AddRoom("room1")

	r := router.New(nil)
	chats := make(chan types.ChatMsg, 16)
	router.On(r, func(m types.ChatMsg) { chats <- m })

	c, statuses := connect(t, srv.WSURL(), "room1", r)
	require.Equal(t, Opened, recvStatus(t, statuses))

	for i := range 5 {
		require.NoError(t, c.Send(types.TextMsg{Text: fmt.Sprintf("guess %d", i)}))
	}
	for i := range 5 {
		in := rm.Recv(t, within)
		assert.Equal(t, types.TextCode, in.Envelope.Code)
		assert.Equal(t, "tok-ann", in.Player.ID)

		chat := recv(t, chats)
		assert.Equal(t, fmt.Sprintf("guess %d", i), chat.Text)
	}
}

func TestDispatch_DropsMalformedFramesAndContinues(t *testing.T) {
	srv := roomtest.NewServer(t)
	rm := srv.AddRoom("room1")

	r := router.New(nil)
	chats := make(chan types.ChatMsg, 4)
	router.On(r, func(m types.ChatMsg) { chats <- m })

	_, statuses := connect(t, srv.WSURL(), "room1", r)
	require.Equal(t, Opened, recvStatus(t, statuses))
	peer := rm.NextPeer(t, within)

	peer.SendRaw([]byte(`not json`))
	peer.SendRaw([]byte(`{"msg":{"text":"no code"}}`))
	peer.SendRaw([]byte(`{"code":4,"msg":{"text":7}}`))
	peer.Send(types.ChatMsg{Player: types.Player{ID: "b", Name: "bob"}, Text: "still here"})

	chat := recv(t, chats)
	assert.Equal(t, "still here", chat.Text)
}

func TestServerClose_IsClosed(t *testing.T) {
	srv := roomtest.NewServer(t)
	rm := srv.AddRoom("room1")

	c, statuses := connect(t, srv.WSURL(), "room1", nil)
	require.Equal(t, Opened, recvStatus(t, statuses))

	peer := rm.NextPeer(t, within)
	_ = peer.Close(websocket.StatusNormalClosure, "game over")

	assert.Equal(t, Closed, recvStatus(t, statuses))
	<-c.Done()
}

func TestClose_IdempotentAndSilencesHandlers(t *testing.T) {
	srv := roomtest.NewServer(t)
	rm := srv.AddRoom("room1")

	r := router.New(nil)
	calls := make(chan types.ChatMsg, 4)
	router.On(r, func(m types.ChatMsg) { calls <- m })

	c, statuses := connect(t, srv.WSURL(), "room1", r)
	require.Equal(t, Opened, recvStatus(t, statuses))
	peer := rm.NextPeer(t, within)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, Closed, c.Status())
	recv(t, c.Done())

	peer.Send(types.ChatMsg{Text: "too late"})
	select {
	case m := <-calls:
		t.Fatalf("handler ran after close: %+v", m)
	case s := <-statuses:
		t.Fatalf("status reported after close: %s", s)
	case <-time.After(100 * time.Millisecond):
	}
	assert.ErrorIs(t, c.Send(types.SaveMsg{}), ErrNotOpen)
}

func TestServerDrop_IsError(t *testing.T) {
	srv := roomtest.NewServer(t)
	rm := srv.AddRoom("room1")

	c, statuses := connect(t, srv.WSURL(), "room1", nil)
	require.Equal(t, Opened, recvStatus(t, statuses))

	peer := rm.NextPeer(t, within)
	_ = peer.Abort()

	assert.Equal(t, Error, recvStatus(t, statuses))
	<-c.Done()
	assert.Equal(t, Error, c.Status())
}

func TestClose_FromHandlerStopsLaterFrames(t *testing.T) {
	srv := roomtest.NewServer(t)
	rm := srv.AddRoom("room1")

	var conn atomic.Pointer[Conn]
	r := router.New(nil)
	calls := make(chan types.ChatMsg, 4)
	router.On(r, func(m types.ChatMsg) {
		calls <- m
		_ = conn.Load().Close()
	})

	c, statuses := connect(t, srv.WSURL(), "room1", r)
	conn.Store(c)
	require.Equal(t, Opened, recvStatus(t, statuses))
	peer := rm.NextPeer(t, within)

	for _, text := range []string{"first", "second", "third"} {
		peer.Send(types.ChatMsg{Text: text})
	}

	assert.Equal(t, "first", recv(t, calls).Text)
	recv(t, c.Done())
	select {
	case m := <-calls:
		t.Fatalf("handler ran after close: %+v", m)
	case s := <-statuses:
		t.Fatalf("status reported after close: %s", s)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, Closed, c.Status())
}

package roomtest

import (
	"context"
	"slices"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

const pageSize = 20

type hubMsg interface{ isHubMsg() }

type getRoom struct {
	code  string
	reply chan *Room
}

// ensureRoom creates the room only if the code is free.
type ensureRoom struct {
	code     string
	settings types.Settings
	reply    chan *Room
}

type listRoomsMsg struct {
	offset int
	reply  chan []string
}

type removeRoom struct{ code string }

type shutdownHub struct{}

func (getRoom) isHubMsg()      {}
func (ensureRoom) isHubMsg()   {}
func (listRoomsMsg) isHubMsg() {}
func (removeRoom) isHubMsg()   {}
func (shutdownHub) isHubMsg()  {}

// hub owns the code -> room map; every access goes through its inbox.
type hub struct {
	inbox  chan hubMsg
	rooms  map[string]*Room
	ctx    context.Context
	cancel context.CancelFunc
}

func newHub(parent context.Context) *hub {
	ctx, cancel := context.WithCancel(parent)
	h := &hub{
		inbox:  make(chan hubMsg, 64),
		rooms:  make(map[string]*Room),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case getRoom:
				msg.reply <- h.rooms[msg.code] // May be nil

			case ensureRoom:
				if rm := h.rooms[msg.code]; rm != nil {
					msg.reply <- rm
					break
				}
				rm := newRoom(h.ctx, msg.code, msg.settings)
				h.rooms[msg.code] = rm
				msg.reply <- rm

			case listRoomsMsg:
				var codes []string
				for code, rm := range h.rooms {
					if rm.settings.IsPublic {
						codes = append(codes, code)
					}
				}
				slices.Sort(codes)
				start := min(max(msg.offset, 0), len(codes))
				end := min(start+pageSize, len(codes))
				msg.reply <- slices.Clone(codes[start:end])

			case removeRoom:
				if rm := h.rooms[msg.code]; rm != nil {
					rm.inbox <- shutdown{}
				}
				delete(h.rooms, msg.code)

			case shutdownHub:
				for _, rm := range h.rooms {
					rm.inbox <- shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

// call sends m and waits for the reply, giving up once the hub has stopped.
func call[T any](h *hub, m hubMsg, reply chan T) (T, bool) {
	var zero T
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
		return zero, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-h.ctx.Done():
		return zero, false
	}
}

func (h *hub) get(code string) *Room {
	reply := make(chan *Room, 1)
	rm, _ := call(h, getRoom{code: code, reply: reply}, reply)
	return rm
}

func (h *hub) ensure(code string, settings types.Settings) *Room {
	reply := make(chan *Room, 1)
	rm, _ := call(h, ensureRoom{code: code, settings: settings, reply: reply}, reply)
	return rm
}

func (h *hub) list(offset int) []string {
	reply := make(chan []string, 1)
	codes, _ := call(h, listRoomsMsg{offset: offset, reply: reply}, reply)
	return codes
}

func (h *hub) shutdown() {
	select {
	case h.inbox <- shutdownHub{}:
	case <-h.ctx.Done():
	}
}

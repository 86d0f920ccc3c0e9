package room

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchroom/internal/canvas"
	"github.com/DoyleJ11/sketchroom/internal/engine"
	"github.com/DoyleJ11/sketchroom/internal/roster"
	"github.com/DoyleJ11/sketchroom/internal/router"
	"github.com/DoyleJ11/sketchroom/internal/stroke"
	"github.com/DoyleJ11/sketchroom/internal/ws"
	"github.com/DoyleJ11/sketchroom/pkg/types"
)

// Change names the part of the room that was just modified.
type Change int

const (
	ChangedRoster Change = iota + 1
	ChangedChat
	ChangedCanvas
	ChangedTurn
	ChangedStatus
)

func (c Change) String() string {
	switch c {
	case ChangedRoster:
		return "roster"
	case ChangedChat:
		return "chat"
	case ChangedCanvas:
		return "canvas"
	case ChangedTurn:
		return "turn"
	case ChangedStatus:
		return "status"
	}
	return "unknown"
}

type Options struct {
	Logger  *zap.Logger
	Surface canvas.Surface // nil records into a canvas.Recorder
}

// View is a deep copy of the room at one instant.
type View struct {
	Status  ws.Status
	Roster  []roster.Slot
	Players []types.Player
	Chat    []types.ChatMsg
	Stamps  []types.Stamp
	Game    engine.State
}

// State is everything the client knows about the room it joined. Mutations
// happen on the connection's dispatch goroutine; View may be called from
// anywhere.
type State struct {
	mu     sync.RWMutex
	status ws.Status
	roster *roster.Store
	chat   []types.ChatMsg
	canvas *canvas.Canvas
	game   engine.State
	logger *zap.Logger

	lmu       sync.Mutex
	listeners []func(Change)
	observers []func(engine.Event)
}

func New(opts Options) *State {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &State{
		roster: roster.New(),
		canvas: canvas.New(opts.Surface),
		game:   engine.NewEmptyState(),
		logger: opts.Logger.Named("room"),
	}
}

// OnChange registers fn for every change. Listeners run on the goroutine that
// applied the change, after the lock is released.
func (s *State) OnChange(fn func(Change)) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnEvent registers fn for game events derived from turn messages.
func (s *State) OnEvent(fn func(engine.Event)) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *State) notify(changes ...Change) {
	s.lmu.Lock()
	ls := slices.Clone(s.listeners)
	s.lmu.Unlock()
	for _, c := range changes {
		for _, fn := range ls {
			fn(c)
		}
	}
}

func (s *State) emit(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	s.lmu.Lock()
	obs := slices.Clone(s.observers)
	s.lmu.Unlock()
	for _, ev := range events {
		for _, fn := range obs {
			fn(ev)
		}
	}
}

// Bind subscribes the state to every server message it folds.
func (s *State) Bind(r *router.Router) []*router.Subscription {
	return []*router.Subscription{
		router.On(r, func(m types.JoinMsg) {
			if err := s.ApplyJoin(m.PlayerIndex, m.Player); err != nil {
				s.logger.Warn("ignoring join", zap.Int("index", m.PlayerIndex), zap.Error(err))
			}
		}),
		router.On(r, func(m types.LeaveMsg) { s.ApplyLeave(m.PlayerIndex, m.Player) }),
		router.On(r, s.ApplyChat),
		router.On(r, s.ApplyDraw),
		router.On(r, func(m types.StateMsg) {
			if err := s.ApplySnapshot(m); err != nil {
				s.logger.Warn("ignoring snapshot", zap.Error(err))
			}
		}),
		router.On(r, func(m types.StartMsg) { s.applyGame(m) }),
		router.On(r, func(m types.BeginMsg) { s.applyGame(m) }),
		router.On(r, func(m types.FinishMsg) { s.applyGame(m) }),
		router.On(r, func(m types.TimeoutMsg) { s.applyGame(m) }),
	}
}

// ApplySnapshot replaces all room state with m. The canvas is decoded before
// anything is touched, so a corrupt blob leaves the previous state intact.
// Applying the same snapshot twice yields the same state.
func (s *State) ApplySnapshot(m types.StateMsg) error {
	stamps, err := stroke.Decode(m.Turn.Canvas)
	if err != nil {
		return fmt.Errorf("snapshot canvas: %w", err)
	}

	s.mu.Lock()
	s.roster.ApplySnapshot(m.Players)
	s.chat = slices.Clone(m.ChatLog)
	s.game = engine.FromSnapshot(m)
	s.canvas.Replay(stamps)
	s.mu.Unlock()

	s.notify(ChangedRoster, ChangedChat, ChangedTurn, ChangedCanvas)
	return nil
}

func (s *State) ApplyJoin(index int, p types.Player) error {
	s.mu.Lock()
	err := s.roster.ApplyJoin(index, p)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(ChangedRoster)
	return nil
}

// ApplyLeave reports whether the slot was cleared.
func (s *State) ApplyLeave(index int, p types.Player) bool {
	s.mu.Lock()
	ok := s.roster.ApplyLeave(index, p)
	s.mu.Unlock()
	if ok {
		s.notify(ChangedRoster)
	}
	return ok
}

// ApplyChat appends m to the log. A correct guess also credits the guesser.
func (s *State) ApplyChat(m types.ChatMsg) {
	s.mu.Lock()
	s.chat = append(s.chat, m)
	var events []engine.Event
	if m.IsGuess() {
		var err error
		events, s.game, err = engine.Apply(s.game, m, s.roster)
		if err != nil {
			s.logger.Warn("guess not applied", zap.Error(err))
		}
	}
	s.mu.Unlock()

	if len(events) > 0 {
		s.notify(ChangedChat, ChangedTurn)
	} else {
		s.notify(ChangedChat)
	}
	s.emit(events)
}

// ApplyDraw paints a stamp received from the drawer.
func (s *State) ApplyDraw(st types.Stamp) {
	s.mu.Lock()
	s.canvas.Apply(st)
	s.mu.Unlock()
	s.notify(ChangedCanvas)
}

// Apply paints a locally drawn stamp; it lets a canvas.Pen draw on the room.
func (s *State) Apply(st types.Stamp) { s.ApplyDraw(st) }

func (s *State) applyGame(p types.Payload) {
	s.mu.Lock()
	events, next, err := engine.Apply(s.game, p, s.roster)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("turn message not applied", zap.Stringer("code", p.Code()), zap.Error(err))
		return
	}
	s.game = next
	cleared := engine.ContainsEvent(events, engine.EvtTurnBegan)
	if cleared {
		s.canvas.Reset()
	}
	s.mu.Unlock()

	if cleared {
		s.notify(ChangedTurn, ChangedCanvas)
	} else {
		s.notify(ChangedTurn)
	}
	s.emit(events)
}

// SetStatus mirrors the connection status for readers of View.
func (s *State) SetStatus(st ws.Status) {
	s.mu.Lock()
	changed := s.status != st
	s.status = st
	s.mu.Unlock()
	if changed {
		s.notify(ChangedStatus)
	}
}

func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.game
	g.Scores = maps.Clone(s.game.Scores)
	g.Guessed = maps.Clone(s.game.Guessed)
	return View{
		Status:  s.status,
		Roster:  s.roster.Current(),
		Players: s.roster.Players(),
		Chat:    slices.Clone(s.chat),
		Stamps:  s.canvas.Stamps(),
		Game:    g,
	}
}

// Drawer returns the player holding the pen, if a turn is in progress.
func (v View) Drawer() (types.Player, bool) {
	if v.Game.Stage != engine.StagePlaying {
		return types.Player{}, false
	}
	for _, sl := range v.Roster {
		if sl.Index == v.Game.DrawerIndex && sl.Player != nil {
			return *sl.Player, true
		}
	}
	return types.Player{}, false
}

// ChatLine renders one chat entry for display.
func ChatLine(m types.ChatMsg) string {
	if m.IsGuess() {
		return fmt.Sprintf("%s guessed the word! (+%d)", m.Player.Name, m.GuessPointsInc)
	}
	return fmt.Sprintf("%s: %s", m.Player.Name, m.Text)
}

package engine

import (
	"errors"
	"maps"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

var ErrUnsupportedPayload = errors.New("unsupported payload")

type Stage int

const (
	StageLobby   Stage = 0
	StagePlaying Stage = 1
	StagePost    Stage = 2
)

func (s Stage) String() string {
	switch s {
	case StageLobby:
		return "lobby"
	case StagePlaying:
		return "playing"
	case StagePost:
		return "post"
	}
	return "unknown"
}

// State is the client's view of the game's progress. The server is
// authoritative; this only folds what it announces.
type State struct {
	Stage       Stage
	Round       int
	Word        string
	DrawerIndex int
	Scores      map[string]int
	Guessed     map[string]bool
}

type EventType string

const (
	EvtTurnBegan    EventType = "TurnBegan"
	EvtTurnFinished EventType = "TurnFinished"
	EvtGameFinished EventType = "GameFinished"
	EvtGuessed      EventType = "Guessed"
	EvtTimeout      EventType = "Timeout"
)

type Event struct {
	Type        EventType
	PlayerID    string
	Points      int
	Word        string
	DrawerIndex int
}

// PlayerLookup resolves a roster index. roster.Store satisfies it.
type PlayerLookup interface {
	At(index int) (types.Player, bool)
}

/*
	START / BEGIN -> EvtTurnBegan                       (stage playing, new word + drawer)
	FINISH        -> EvtTurnFinished -> EvtTurnBegan    (drawer scored, next turn)
	              -> EvtTurnFinished -> EvtGameFinished (no next turn: stage post)
	CHAT (guess)  -> EvtGuessed                         (guesser scored)
	TIMEOUT       -> EvtTimeout
*/

// Apply folds one server payload into s. s is never mutated.
func Apply(s State, p types.Payload, who PlayerLookup) ([]Event, State, error) {
	next := s.clone()

	switch msg := p.(type) {
	case types.StartMsg:
		return next.beginTurn(types.BeginMsg(msg)), next, nil

	case types.BeginMsg:
		return next.beginTurn(msg), next, nil

	case types.FinishMsg:
		finished := Event{Type: EvtTurnFinished, Points: msg.DrawScoreInc, DrawerIndex: s.DrawerIndex}
		if drawer, ok := who.At(s.DrawerIndex); ok {
			finished.PlayerID = drawer.ID
			next.Scores[drawer.ID] += msg.DrawScoreInc
		}
		events := []Event{finished}
		if msg.BeginMsg == nil {
			next.Stage = StagePost
			next.Word = ""
			return append(events, Event{Type: EvtGameFinished}), next, nil
		}
		return append(events, next.beginTurn(*msg.BeginMsg)...), next, nil

	case types.ChatMsg:
		if !msg.IsGuess() {
			return nil, s, nil
		}
		next.Scores[msg.Player.ID] += msg.GuessPointsInc
		next.Guessed[msg.Player.ID] = true
		return []Event{{Type: EvtGuessed, PlayerID: msg.Player.ID, Points: msg.GuessPointsInc}}, next, nil

	case types.TimeoutMsg:
		return []Event{{Type: EvtTimeout, DrawerIndex: s.DrawerIndex}}, s, nil

	default:
		return nil, s, ErrUnsupportedPayload
	}
}

// beginTurn mirrors the server's cycling: the round advances whenever the
// turn passes back to the first player.
func (s *State) beginTurn(b types.BeginMsg) []Event {
	s.Stage = StagePlaying
	s.Word = b.NextWord
	s.DrawerIndex = b.NextPlayerIndex
	if b.NextPlayerIndex == 0 {
		s.Round++
	}
	clear(s.Guessed)
	return []Event{{Type: EvtTurnBegan, Word: b.NextWord, DrawerIndex: b.NextPlayerIndex}}
}

func (s State) clone() State {
	c := s
	c.Scores = maps.Clone(s.Scores)
	c.Guessed = maps.Clone(s.Guessed)
	if c.Scores == nil {
		c.Scores = map[string]int{}
	}
	if c.Guessed == nil {
		c.Guessed = map[string]bool{}
	}
	return c
}

// FromSnapshot rebuilds the state announced by a STATE message.
func FromSnapshot(m types.StateMsg) State {
	s := NewEmptyState()
	s.Stage = Stage(m.Stage)
	s.Round = m.CurrRound
	s.Word = m.Turn.CurrWord
	s.DrawerIndex = -1
	if m.Turn.CurrPlayer != nil {
		for i, p := range m.Players {
			if p.ID == m.Turn.CurrPlayer.ID {
				s.DrawerIndex = i
				break
			}
		}
	}
	for id, score := range m.ScoreBoard {
		s.Scores[id] = score.Points
	}
	return s
}

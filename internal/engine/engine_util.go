package engine

import (
	"cmp"
	"slices"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

func NewEmptyState() State {
	return State{
		Stage:       StageLobby,
		DrawerIndex: -1,
		Scores:      map[string]int{},
		Guessed:     map[string]bool{},
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

type Standing struct {
	Player types.Player
	Points int
}

// Standings orders players by points, highest first; ties keep roster order.
func Standings(s State, players []types.Player) []Standing {
	out := make([]Standing, 0, len(players))
	for _, p := range players {
		out = append(out, Standing{Player: p, Points: s.Scores[p.ID]})
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		return cmp.Compare(b.Points, a.Points)
	})
	return out
}

// IsDrawer reports whether p holds the pen this turn.
func IsDrawer(s State, who PlayerLookup, p types.Player) bool {
	if s.Stage != StagePlaying {
		return false
	}
	d, ok := who.At(s.DrawerIndex)
	return ok && d.ID == p.ID
}

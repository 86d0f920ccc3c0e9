package roster

import (
	"errors"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

var ErrBadIndex = errors.New("player index out of range")

// MaxIndex bounds how far a single JOIN can grow the roster.
const MaxIndex = 255

// Slot is one roster position. Player is nil for a reserved, unfilled index.
type Slot struct {
	Index  int
	Player *types.Player
}

// Store holds players keyed by the index the server assigned at join time.
// Gaps are legal and render as empty slots.
type Store struct {
	slots []*types.Player
}

func New() *Store { return &Store{} }

// ApplyJoin inserts or replaces the player at index, leaving every other
// index untouched.
func (s *Store) ApplyJoin(index int, p types.Player) error {
	if index < 0 || index > MaxIndex {
		return ErrBadIndex
	}
	for len(s.slots) <= index {
		s.slots = append(s.slots, nil)
	}
	s.slots[index] = &p
	return nil
}

// ApplyLeave empties index if it still holds the leaving player. A stale
// LEAVE for a slot that has since been reclaimed by someone else is ignored.
func (s *Store) ApplyLeave(index int, p types.Player) bool {
	if index < 0 || index >= len(s.slots) {
		return false
	}
	cur := s.slots[index]
	if cur == nil || cur.ID != p.ID {
		return false
	}
	s.slots[index] = nil
	s.trim()
	return true
}

// ApplySnapshot replaces the whole roster with players at indices 0..n-1.
func (s *Store) ApplySnapshot(players []types.Player) {
	slots := make([]*types.Player, len(players))
	for i := range players {
		p := players[i]
		slots[i] = &p
	}
	s.slots = slots
}

// Current returns every slot up to the highest filled index.
func (s *Store) Current() []Slot {
	out := make([]Slot, len(s.slots))
	for i, p := range s.slots {
		out[i] = Slot{Index: i}
		if p != nil {
			cp := *p
			out[i].Player = &cp
		}
	}
	return out
}

// Players returns the filled slots in index order.
func (s *Store) Players() []types.Player {
	out := make([]types.Player, 0, len(s.slots))
	for _, p := range s.slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func (s *Store) At(index int) (types.Player, bool) {
	if index < 0 || index >= len(s.slots) || s.slots[index] == nil {
		return types.Player{}, false
	}
	return *s.slots[index], true
}

// Len is the number of slots, filled or not.
func (s *Store) Len() int { return len(s.slots) }

func (s *Store) trim() {
	n := len(s.slots)
	for n > 0 && s.slots[n-1] == nil {
		n--
	}
	s.slots = s.slots[:n]
}

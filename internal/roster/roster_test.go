package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

var (
	ann = types.Player{ID: "a", Name: "ann"}
	bob = types.Player{ID: "b", Name: "bob"}
	cat = types.Player{ID: "c", Name: "cat"}
)

func TestStore_SparseInsert(t *testing.T) {
	s := New()
	require.NoError(t, s.ApplyJoin(3, ann))

	cur := s.Current()
	require.Len(t, cur, 4)
	for i := 0; i < 3; i++ {
		assert.Nil(t, cur[i].Player, "index %d should be empty", i)
		assert.Equal(t, i, cur[i].Index)
	}
	assert.Equal(t, ann, *cur[3].Player)

	require.NoError(t, s.ApplyJoin(1, bob))
	cur = s.Current()
	assert.Equal(t, bob, *cur[1].Player)
	assert.Equal(t, ann, *cur[3].Player)
	assert.Nil(t, cur[0].Player)
	assert.Nil(t, cur[2].Player)
}

func TestStore_JoinReplacesSameIndex(t *testing.T) {
	s := New()
	require.NoError(t, s.ApplyJoin(0, ann))
	renamed := types.Player{ID: "a", Name: "annie"}
	require.NoError(t, s.ApplyJoin(0, renamed))

	p, ok := s.At(0)
	require.True(t, ok)
	assert.Equal(t, "annie", p.Name)
	assert.Equal(t, 1, s.Len())
}

func TestStore_BadIndex(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.ApplyJoin(-1, ann), ErrBadIndex)
	assert.ErrorIs(t, s.ApplyJoin(MaxIndex+1, ann), ErrBadIndex)
	assert.Zero(t, s.Len())
}

func TestStore_Leave(t *testing.T) {
	s := New()
	s.ApplySnapshot([]types.Player{ann, bob, cat})

	assert.False(t, s.ApplyLeave(1, ann), "slot 1 belongs to bob")
	assert.True(t, s.ApplyLeave(1, bob))
	assert.Equal(t, []types.Player{ann, cat}, s.Players())
	assert.Equal(t, 3, s.Len())

	assert.True(t, s.ApplyLeave(2, cat))
	assert.Equal(t, 1, s.Len(), "trailing empty slots are trimmed")
	assert.False(t, s.ApplyLeave(7, cat))
}

func TestStore_SnapshotReplacesEverything(t *testing.T) {
	s := New()
	require.NoError(t, s.ApplyJoin(5, cat))
	s.ApplySnapshot([]types.Player{ann, bob})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []types.Player{ann, bob}, s.Players())
}

func TestStore_CurrentIsACopy(t *testing.T) {
	s := New()
	require.NoError(t, s.ApplyJoin(0, ann))
	cur := s.Current()
	cur[0].Player.Name = "mallory"

	p, _ := s.At(0)
	assert.Equal(t, "ann", p.Name)
}

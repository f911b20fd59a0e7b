package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmourey/fungame/internal/game/entity"
	"github.com/pmourey/fungame/internal/game/session"
)

func TestNewConfig(t *testing.T) {
	cfg, err := session.NewConfig(20, 10, "1d20", "2d6+1")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.GridWidth)
	assert.Equal(t, 10, cfg.GridHeight)

	_, err = session.NewConfig(20, 10, "banana", "1d6")
	assert.Error(t, err)
	_, err = session.NewConfig(20, 10, "1d20", "")
	assert.Error(t, err)
}

func TestRegistry_CreateListGet(t *testing.T) {
	reg := newTestRegistry(t)

	first := reg.Create("First", 2)
	second := reg.Create("Second", 4)

	got, ok := reg.Get(first.ID())
	require.True(t, ok)
	assert.Same(t, first, got)
	_, ok = reg.Get("nope")
	assert.False(t, ok)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID(), list[0].ID)
	assert.Equal(t, "First", list[0].Name)
	assert.Equal(t, session.StatusWaiting, list[0].Status)
	assert.Equal(t, second.ID(), list[1].ID)

	second.AddEntity("A")
	require.NoError(t, second.Start())
	list = reg.List()
	assert.Equal(t, session.StatusRunning, list[1].Status)
}

func TestRegistry_AddEntity(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.Create("Arena", 2)

	e, err := reg.AddEntity(s.ID(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", e.Name)
	assert.Equal(t, entity.KindPlayer, e.Kind)

	_, err = reg.AddEntity("nope", "Bob")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = reg.AddMonster("nope", &entity.Template{ID: "g", Name: "G", MaxHP: 5, AC: 10})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSnapshot_IsDetached(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.Create("Arena", 2)
	e, _ := s.AddEntity("A")
	require.NoError(t, s.Start())

	snap := s.Snapshot()
	snap.Players[0].HP = 1
	snap.TurnQueue[0] = "tampered"
	snap.Grid[0][0] = 99

	fresh := s.Snapshot()
	assert.Equal(t, 10, fresh.Entity(e.ID).HP)
	assert.Equal(t, e.ID, fresh.TurnQueue[0])
	assert.Zero(t, fresh.Grid[0][0])
}

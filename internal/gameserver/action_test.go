package gameserver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmourey/fungame/internal/game/session"
	"github.com/pmourey/fungame/internal/gameserver"
)

func TestDecodeAction(t *testing.T) {
	x, y := 3, 4

	act, err := gameserver.DecodeAction(gameserver.ActionRequest{Type: "move", X: &x, Y: &y})
	require.NoError(t, err)
	mv, ok := act.(session.Move)
	require.True(t, ok)
	assert.Equal(t, 3, *mv.X)
	assert.Equal(t, 4, *mv.Y)

	act, err = gameserver.DecodeAction(gameserver.ActionRequest{Type: "move"})
	require.NoError(t, err)
	mv = act.(session.Move)
	assert.Nil(t, mv.X, "omitted coordinates stay nil")
	assert.Nil(t, mv.Y)

	act, err = gameserver.DecodeAction(gameserver.ActionRequest{Type: "attack", TargetID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, session.Attack{TargetID: "t-1"}, act)

	for _, alias := range []string{"respawn", "revive"} {
		act, err = gameserver.DecodeAction(gameserver.ActionRequest{Type: alias})
		require.NoError(t, err)
		assert.Equal(t, session.Respawn{}, act)
	}

	act, err = gameserver.DecodeAction(gameserver.ActionRequest{Type: "end_turn"})
	require.NoError(t, err)
	assert.Equal(t, session.EndTurn{}, act)

	for _, bad := range []string{"", "dance", "MOVE"} {
		_, err = gameserver.DecodeAction(gameserver.ActionRequest{Type: bad})
		assert.ErrorIs(t, err, session.ErrUnknownAction, "type %q", bad)
	}
}

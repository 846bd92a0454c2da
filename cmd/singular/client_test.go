// cmd/singular/client_test.go
package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singular-game/singular/internal/engine"
	"github.com/singular-game/singular/internal/room"
)

func roomEvent(t *testing.T, typ room.EventType, payload interface{}) room.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return room.Event{Type: typ, Data: data}
}

func gameEvent(t *testing.T, ev engine.Event) room.Event {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return room.NewGameEvent(data)
}

func hostEvent(t *testing.T, to uint32, ev engine.Event) room.Event {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return room.NewFromHost(to, data)
}

// TestClientMirrorsHostedRound replays the full start sequence a host
// emits and checks the mirror arrives at the same table.
func TestClientMirrorsHostedRound(t *testing.T) {
	host := engine.NewGame(engine.NewPlayer("alice", 0), true)
	host.AddPlayer(engine.NewPlayer("bob", 1))
	host.Reset()

	c := newClient(nil, "bob")
	c.dispatch(roomEvent(t, room.EventInitData, room.InitDataPayload{
		Players: []room.PlayerInfo{{Name: "alice", ID: 0}},
		ID:      1,
		Role:    room.RolePlayer,
	}))
	id := uint32(1)
	c.dispatch(roomEvent(t, room.EventPlayerJoined, room.PlayerJoinedPayload{Name: "bob", ID: &id}))

	require.True(t, c.joined)
	assert.Equal(t, uint32(1), c.selfID)
	assert.Equal(t, room.RolePlayer, c.role)
	require.Len(t, c.roster, 2)
	assert.Equal(t, "bob", c.playerName(1))

	c.dispatch(room.Event{Type: room.EventGameStart})
	require.True(t, c.started)
	require.NotNil(t, c.game)
	assert.False(t, c.game.IsHost())

	c.dispatch(gameEvent(t, host.InitEvent()))
	c.dispatch(hostEvent(t, 1, host.DealEventFor(1)))
	c.dispatch(gameEvent(t, host.DealEvent()))

	require.Len(t, c.game.Players(), 2)
	assert.Len(t, c.game.OwnHand(), 7)
	assert.Equal(t, host.CurrentPlayer(), c.game.CurrentPlayer())
	assert.Equal(t, host.Color(), c.game.Color())
	assert.Equal(t, host.DrawLen(), c.game.DrawLen())

	hostTop, ok := host.Last()
	require.True(t, ok)
	mirrorTop, ok := c.game.Last()
	require.True(t, ok)
	assert.Equal(t, hostTop, mirrorTop)
}

// TestHostIgnoresImpersonatedRequests covers the host side of the
// relay's sender stamp: a request naming a different player than the
// one who sent it never reaches the engine.
func TestHostIgnoresImpersonatedRequests(t *testing.T) {
	g := engine.NewGame(engine.NewPlayer("alice", 0), true)
	g.AddPlayer(engine.NewPlayer("bob", 1))
	g.AddPlayer(engine.NewPlayer("carol", 2))
	g.Reset()
	require.Equal(t, uint32(0), g.CurrentPlayer())

	c := newClient(nil, "alice")
	c.selfID = 0
	c.role = room.RoleHost
	c.roster = []room.PlayerInfo{{Name: "alice", ID: 0}, {Name: "bob", ID: 1}, {Name: "carol", ID: 2}}
	c.started = true
	c.game = g
	handBefore := len(g.OwnHand())

	sender := uint32(2)
	toHost := func(gev engine.Event) room.Event {
		msg, err := json.Marshal(gev)
		require.NoError(t, err)
		data, err := json.Marshal(room.ToHostPayload{ID: &sender, Msg: msg})
		require.NoError(t, err)
		return room.Event{Type: room.EventToHost, Data: data}
	}

	// carol asks for a draw on alice's behalf.
	c.dispatch(toHost(engine.Event{Type: engine.EventDrawRequest, Data: json.RawMessage(`{"player":0}`)}))
	assert.Len(t, g.OwnHand(), handBefore, "the impersonated draw never executes")

	// carol tries to pass alice's turn.
	c.dispatch(toHost(engine.Event{Type: engine.EventEndTurn}))
	assert.Equal(t, uint32(0), g.CurrentPlayer(), "only the turn holder may pass")

	// An envelope without a stamp is refused outright.
	msg, err := json.Marshal(engine.Event{Type: engine.EventDrawRequest, Data: json.RawMessage(`{"player":2}`)})
	require.NoError(t, err)
	data, err := json.Marshal(room.ToHostPayload{Msg: msg})
	require.NoError(t, err)
	c.dispatch(room.Event{Type: room.EventToHost, Data: data})
	assert.Len(t, g.Players()[2].Hand, 7)
}

func TestClientResetClearsRound(t *testing.T) {
	c := newClient(nil, "bob")
	c.dispatch(roomEvent(t, room.EventInitData, room.InitDataPayload{ID: 1, Role: room.RolePlayer}))
	c.dispatch(room.Event{Type: room.EventGameStart})
	require.NotNil(t, c.game)

	c.dispatch(room.Event{Type: room.EventReset})
	assert.False(t, c.started)
	assert.Nil(t, c.game)
}

func TestClientDropsDepartedPlayers(t *testing.T) {
	c := newClient(nil, "bob")
	c.dispatch(roomEvent(t, room.EventInitData, room.InitDataPayload{
		Players: []room.PlayerInfo{{Name: "alice", ID: 0}, {Name: "carol", ID: 2}},
		ID:      1,
		Role:    room.RolePlayer,
	}))
	id := uint32(1)
	c.dispatch(roomEvent(t, room.EventPlayerJoined, room.PlayerJoinedPayload{Name: "bob", ID: &id}))
	require.Len(t, c.roster, 3)

	c.dispatch(roomEvent(t, room.EventPlayerLeft, room.PlayerLeftPayload{ID: 2}))
	require.Len(t, c.roster, 2)
	for _, pi := range c.roster {
		assert.NotEqual(t, uint32(2), pi.ID)
	}
}

// cmd/singular/client.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/pterm/pterm"

	"github.com/singular-game/singular/internal/engine"
	"github.com/singular-game/singular/internal/room"
)

const writeTimeout = 5 * time.Second

// client holds one participant's view of a room: the relay roster, the
// local game instance once a round is running, and the socket it all
// rides on. The read loop is the only writer of this state besides the
// turn loop; both serialize through mu and wake waiters via cond.
type client struct {
	conn *websocket.Conn
	name string

	mu   sync.Mutex
	cond *sync.Cond

	selfID uint32
	role   room.Role
	roster []room.PlayerInfo // join order, the host's seating order

	game    *engine.Game
	started bool
	closed  bool
	joined  bool
}

func newClient(conn *websocket.Conn, name string) *client {
	c := &client{conn: conn, name: name}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// send marshals and writes one room event to the relay.
func (c *client) send(ev room.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// sendGame wraps an engine event for broadcast relay.
func (c *client) sendGame(ev engine.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.send(room.NewGameEvent(data))
}

// sendToHost wraps an engine event for delivery to the host alone.
func (c *client) sendToHost(ev engine.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.send(room.NewToHost(data))
}

// sendOutbounds delivers the host engine's emissions: broadcasts ride
// game_event envelopes, addressed events ride from_host. Events
// addressed to the host itself were already applied authoritatively
// and are dropped.
func (c *client) sendOutbounds(outs []engine.Outbound) {
	for _, out := range outs {
		data, err := json.Marshal(out.Event)
		if err != nil {
			continue
		}
		if out.To == nil {
			c.send(room.NewGameEvent(data))
			continue
		}
		if *out.To == c.selfID {
			continue
		}
		c.send(room.NewFromHost(*out.To, data))
	}
}

// waitFor blocks until done returns true under the lock or the
// connection dies. Returns false on disconnect.
func (c *client) waitFor(done func() bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !done() && !c.closed {
		c.cond.Wait()
	}
	return !c.closed
}

// readLoop consumes the socket until it dies, dispatching every room
// event into local state. It owns all state transitions driven by the
// network side.
func (c *client) readLoop(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.cond.Broadcast()
	}()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var ev room.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		c.dispatch(ev)
		c.cond.Broadcast()
	}
}

func (c *client) dispatch(ev room.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case room.EventInitData:
		var p room.InitDataPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		c.selfID = p.ID
		c.role = p.Role
		c.roster = append([]room.PlayerInfo(nil), p.Players...)
		c.joined = true

	case room.EventPlayerJoined:
		var p room.PlayerJoinedPayload
		if json.Unmarshal(ev.Data, &p) != nil || p.ID == nil {
			return
		}
		c.roster = append(c.roster, room.PlayerInfo{Name: p.Name, ID: *p.ID})
		if *p.ID != c.selfID {
			pterm.Info.Printfln("%s joined the room", pterm.LightCyan(p.Name))
		}

	case room.EventPlayerLeft:
		var p room.PlayerLeftPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		pterm.Info.Printfln("%s left the room", pterm.LightCyan(c.playerName(p.ID)))
		for i, pi := range c.roster {
			if pi.ID == p.ID {
				c.roster = append(c.roster[:i], c.roster[i+1:]...)
				break
			}
		}
		if c.game != nil {
			c.game.RemovePlayer(p.ID)
		}

	case room.EventChatMessage:
		var p room.ChatMessagePayload
		if json.Unmarshal(ev.Data, &p) != nil || p.ID == nil {
			return
		}
		pterm.Printfln("%s %s", pterm.LightCyan("["+c.playerName(*p.ID)+"]"), p.Msg)

	case room.EventGameStart:
		c.started = true
		if c.role == room.RoleHost {
			// The host built its game before announcing the start.
			return
		}
		// The mirror seats only the local player here; the init event
		// that follows the start seeds the full roster in the host's
		// seating order.
		c.game = engine.NewGame(engine.NewPlayer(c.name, c.selfID), false)

	case room.EventReset:
		c.started = false
		c.game = nil

	case room.EventGameEvent:
		// The host originated every broadcast once a round is running;
		// applying its own echo would double-apply.
		if c.role == room.RoleHost || c.game == nil {
			return
		}
		var gev engine.Event
		if json.Unmarshal(ev.Data, &gev) != nil {
			return
		}
		c.applyMirror(gev)

	case room.EventFromHost:
		if c.game == nil {
			return
		}
		var p room.FromHostPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		var gev engine.Event
		if json.Unmarshal(p.Msg, &gev) != nil {
			return
		}
		c.applyMirror(gev)

	case room.EventToHost:
		if c.role != room.RoleHost || c.game == nil {
			return
		}
		var p room.ToHostPayload
		if json.Unmarshal(ev.Data, &p) != nil || p.ID == nil {
			return
		}
		var gev engine.Event
		if json.Unmarshal(p.Msg, &gev) != nil {
			return
		}
		if !sentByActor(gev, *p.ID, c.game.CurrentPlayer()) {
			pterm.Warning.Printfln("ignoring a request from %s claiming another player",
				pterm.LightCyan(c.playerName(*p.ID)))
			return
		}
		c.sendOutbounds(c.game.HandleHostEvent(gev))

	case room.EventError:
		var p room.ErrorPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		pterm.Error.Println(p.Message)
	}
}

// applyMirror feeds one host-originated engine event into the local
// mirror and narrates the visible outcome. Caller holds mu.
func (c *client) applyMirror(gev engine.Event) {
	var play engine.PlayCardPayload
	isPlay := gev.Type == engine.EventPlayCard && json.Unmarshal(gev.Data, &play) == nil

	result := c.game.HandleEvent(gev)
	if result == engine.InvalidCard || !isPlay {
		return
	}
	if play.Player != c.selfID {
		pterm.Info.Printfln("%s played %s", pterm.LightCyan(c.playerName(play.Player)), cardLabel(play.Card))
	}
	if result == engine.GameOver || play.GameOver {
		pterm.Success.Printfln("%s has no cards left and wins!", pterm.LightCyan(c.playerName(play.Player)))
	}
}

// sentByActor checks a relayed request against its stamped sender:
// draw_request and play_card name the player they act for, which must
// be the sender itself; end_turn carries no actor, so only the player
// holding the turn may send it.
func sentByActor(gev engine.Event, sender, current uint32) bool {
	switch gev.Type {
	case engine.EventDrawRequest:
		var p engine.DrawRequestPayload
		return json.Unmarshal(gev.Data, &p) == nil && p.Player == sender
	case engine.EventPlayCard:
		var p engine.PlayCardPayload
		return json.Unmarshal(gev.Data, &p) == nil && p.Player == sender
	case engine.EventEndTurn:
		return sender == current
	default:
		return false
	}
}

func (c *client) playerName(id uint32) string {
	for _, pi := range c.roster {
		if pi.ID == id {
			return pi.Name
		}
	}
	return fmt.Sprintf("player %d", id)
}

// startRound builds (or reuses) the authoritative game, deals, and
// pushes the start sequence through the relay: the start marker, the
// public table state, each player's private hand, then the public
// deal. Host only.
func (c *client) startRound() error {
	c.mu.Lock()
	if c.role != room.RoleHost {
		c.mu.Unlock()
		return fmt.Errorf("only the host can start a round")
	}
	if len(c.roster) < 2 {
		c.mu.Unlock()
		return fmt.Errorf("need at least 2 players, have %d", len(c.roster))
	}
	if c.game == nil {
		g := engine.NewGame(engine.NewPlayer(c.name, c.selfID), true)
		for _, pi := range c.roster {
			if pi.ID != c.selfID {
				g.AddPlayer(engine.NewPlayer(pi.Name, pi.ID))
			}
		}
		c.game = g
	}
	c.game.Reset()
	c.started = true

	initEv := c.game.InitEvent()
	dealEv := c.game.DealEvent()
	type privateDeal struct {
		to uint32
		ev engine.Event
	}
	deals := make([]privateDeal, 0, len(c.roster))
	for _, pi := range c.roster {
		if pi.ID != c.selfID {
			deals = append(deals, privateDeal{to: pi.ID, ev: c.game.DealEventFor(pi.ID)})
		}
	}
	c.mu.Unlock()

	if err := c.send(room.Event{Type: room.EventGameStart}); err != nil {
		return err
	}
	if err := c.sendGame(initEv); err != nil {
		return err
	}
	for _, d := range deals {
		data, err := json.Marshal(d.ev)
		if err != nil {
			return err
		}
		if err := c.send(room.NewFromHost(d.to, data)); err != nil {
			return err
		}
	}
	return c.sendGame(dealEv)
}

// playCard resolves the local player's play of the card at idx,
// assigning wildColor first when the card is wild. The event is built
// before the local apply so it carries the pre-play index.
func (c *client) playCard(idx int, wildColor engine.Color) error {
	c.mu.Lock()
	if c.game == nil {
		c.mu.Unlock()
		return fmt.Errorf("no round in progress")
	}
	if wildColor.Concrete() {
		c.game.SetWildColor(idx, wildColor)
	}
	ev, ok := c.game.PlayCardEvent(idx)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("that card cannot be played")
	}
	result := c.game.PlayIndex(idx)
	isHost := c.role == room.RoleHost
	c.mu.Unlock()

	if result == engine.InvalidCard {
		return fmt.Errorf("that card is not playable right now")
	}
	if isHost {
		return c.sendGame(ev)
	}
	return c.sendToHost(ev)
}

// requestDraw asks for cards: the host serves itself through its own
// authoritative instance, a player asks the host over the relay.
func (c *client) requestDraw() error {
	c.mu.Lock()
	if c.game == nil {
		c.mu.Unlock()
		return fmt.Errorf("no round in progress")
	}
	req := c.game.DrawRequest()
	if c.role == room.RoleHost {
		outs := c.game.HandleHostEvent(req)
		c.mu.Unlock()
		if outs == nil {
			return fmt.Errorf("you cannot draw right now")
		}
		c.sendOutbounds(outs)
		return nil
	}
	c.mu.Unlock()
	return c.sendToHost(req)
}

// passTurn ends the local player's turn without a play.
func (c *client) passTurn() error {
	c.mu.Lock()
	if c.game == nil {
		c.mu.Unlock()
		return fmt.Errorf("no round in progress")
	}
	if c.role == room.RoleHost {
		before := c.game.CurrentPlayer()
		c.game.EndTurn()
		if c.game.CurrentPlayer() == before {
			c.mu.Unlock()
			return fmt.Errorf("you cannot pass right now")
		}
		ev := c.game.EndTurnEvent()
		c.mu.Unlock()
		return c.sendGame(ev)
	}
	c.mu.Unlock()
	return c.sendToHost(engine.Event{Type: engine.EventEndTurn})
}

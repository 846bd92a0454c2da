// internal/room/room.go
package room

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Conn is a single participant's presence in a room. The transport
// owns the socket; the room only ever talks to the OutChan.
type Conn struct {
	ID   uint32
	Name string
	Role Role

	// Cancel tears down the transport goroutines for this connection.
	Cancel func()

	// OutChan carries events destined for this participant's socket.
	OutChan chan Event
}

// Write pushes an event onto the participant's OutChan without
// blocking. A full or abandoned channel drops the event; the write
// pump death is handled by the transport, not here.
func (c *Conn) Write(ev Event) {
	select {
	case c.OutChan <- ev:
	default:
		logrus.Warnf("room: dropped %s event for player %d (out channel full or closed)", ev.Type, c.ID)
	}
}

// WriteError sends an error event to this participant alone.
func (c *Conn) WriteError(msg string) {
	c.Write(newEvent(EventError, ErrorPayload{Message: msg}))
}

// Room is an ephemeral relay between one host and its players. The
// room never parses game payloads; it assigns ids, tracks who the
// host is, and routes envelopes.
type Room struct {
	Code Code

	mu      sync.Mutex
	conns   []*Conn // join order; the first participant is the host
	nextID  uint32
	seq     int
	started bool
	public  bool
	updated time.Time

	// OnEmpty is called after the last participant leaves, typically
	// wired to the store's Remove.
	OnEmpty func(Code)
}

// NewRoom creates an empty room under the given code.
func NewRoom(code Code) *Room {
	return &Room{
		Code:    code,
		updated: time.Now(),
	}
}

// Updated returns the time of the last activity in the room.
func (r *Room) Updated() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updated
}

// Started reports whether the host has started a game.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Public reports whether the host has listed the room publicly.
func (r *Room) Public() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.public
}

// NextSeq returns a monotonically increasing index for events relayed
// through this room, used to order the persisted history.
func (r *Room) NextSeq() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.seq
	r.seq++
	return n
}

// Len returns the number of connected participants.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Room) touchUnsafe() {
	r.updated = time.Now()
}

func (r *Room) hostUnsafe() *Conn {
	for _, c := range r.conns {
		if c.Role == RoleHost {
			return c
		}
	}
	return nil
}

func (r *Room) rosterUnsafe() []PlayerInfo {
	players := make([]PlayerInfo, 0, len(r.conns))
	for _, c := range r.conns {
		players = append(players, PlayerInfo{Name: c.Name, ID: c.ID})
	}
	return players
}

func (r *Room) broadcastUnsafe(ev Event) {
	for _, c := range r.conns {
		c.Write(ev)
	}
}

// Join admits a participant under the given display name. The first
// participant becomes the host. The joiner privately receives
// init_data describing the existing roster and their assigned seat,
// then everyone (joiner included) sees player_joined. Joining a
// started room is refused.
func (r *Room) Join(conn *Conn, name string) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		conn.WriteError("game already started")
		return fmt.Errorf("room %s: join refused, game already started", r.Code)
	}
	r.touchUnsafe()

	conn.Name = name
	conn.ID = r.nextID
	r.nextID++
	conn.Role = RolePlayer
	if len(r.conns) == 0 {
		conn.Role = RoleHost
	}

	// The roster in init_data deliberately excludes the joiner; the
	// immediately following player_joined completes the picture on
	// every mirror identically.
	init := newEvent(EventInitData, InitDataPayload{
		Players: r.rosterUnsafe(),
		ID:      conn.ID,
		Role:    conn.Role,
	})
	r.conns = append(r.conns, conn)

	conn.Write(init)
	id := conn.ID
	r.broadcastUnsafe(newEvent(EventPlayerJoined, PlayerJoinedPayload{Name: name, ID: &id}))
	r.mu.Unlock()

	logrus.Infof("room %s: player %d (%s) joined as %s", r.Code, id, name, conn.Role)
	return nil
}

// Leave removes a participant and announces it. An empty room fires
// OnEmpty.
func (r *Room) Leave(id uint32) {
	r.mu.Lock()
	found := false
	for i, c := range r.conns {
		if c.ID != id {
			continue
		}
		r.conns = append(r.conns[:i], r.conns[i+1:]...)
		found = true
		if c.Cancel != nil {
			c.Cancel()
		}
		break
	}
	if !found {
		r.mu.Unlock()
		return
	}
	r.touchUnsafe()
	empty := len(r.conns) == 0
	onEmpty := r.OnEmpty
	r.broadcastUnsafe(newEvent(EventPlayerLeft, PlayerLeftPayload{ID: id}))
	r.mu.Unlock()

	logrus.Infof("room %s: player %d left", r.Code, id)
	if empty && onEmpty != nil {
		onEmpty(r.Code)
	}
}

// Handle routes one event from a connected participant. Routing never
// interprets game payloads; it only enforces who may say what and to
// whom it goes.
func (r *Room) Handle(sender *Conn, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchUnsafe()

	isHost := sender.Role == RoleHost

	switch ev.Type {
	case EventChatMessage:
		var p ChatMessagePayload
		if json.Unmarshal(ev.Data, &p) != nil || p.Msg == "" {
			return
		}
		id := sender.ID
		r.broadcastUnsafe(newEvent(EventChatMessage, ChatMessagePayload{Msg: p.Msg, ID: &id}))

	case EventGameEvent:
		// Any participant may emit game traffic; validation is the
		// game engine's job.
		r.broadcastUnsafe(ev)

	case EventToHost:
		var p ToHostPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		// Stamp the sender so the host can reject requests made on
		// someone else's behalf.
		if host := r.hostUnsafe(); host != nil {
			id := sender.ID
			host.Write(newEvent(EventToHost, ToHostPayload{ID: &id, Msg: p.Msg}))
		}

	case EventFromHost:
		if !isHost {
			sender.WriteError("only the host may address players directly")
			return
		}
		var p FromHostPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		for _, c := range r.conns {
			if c.ID == p.ID {
				c.Write(ev)
				return
			}
		}

	case EventGameStart:
		if !isHost {
			sender.WriteError("only the host may start the game")
			return
		}
		r.started = true
		r.broadcastUnsafe(ev)

	case EventReset:
		if !isHost {
			sender.WriteError("only the host may reset the room")
			return
		}
		r.started = false
		r.broadcastUnsafe(ev)

	case EventHostEvent:
		if !isHost {
			sender.WriteError("only the host may emit host events")
			return
		}
		r.broadcastUnsafe(ev)

	case EventSetPublic:
		if !isHost {
			sender.WriteError("only the host may change room visibility")
			return
		}
		var public bool
		if json.Unmarshal(ev.Data, &public) != nil {
			return
		}
		r.public = public
		r.broadcastUnsafe(ev)

	case EventPlayerLeft:
		var p PlayerLeftPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		if p.ID != sender.ID && !isHost {
			sender.WriteError("only the host may remove other players")
			return
		}
		// Re-enter through Leave without holding the lock.
		id := p.ID
		r.mu.Unlock()
		r.Leave(id)
		r.mu.Lock()

	case EventPlayerJoined:
		sender.WriteError("already joined")

	default:
		logrus.Debugf("room %s: ignoring unknown event %q from player %d", r.Code, ev.Type, sender.ID)
		sender.WriteError(fmt.Sprintf("unknown event type %q", ev.Type))
	}
}

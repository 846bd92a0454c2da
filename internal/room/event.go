// internal/room/event.go
//
// The room protocol is a thin relay layer around the game protocol:
// the room never interprets game payloads, it only routes them. Game
// traffic rides inside to_host/from_host/game_event envelopes as
// opaque JSON.
package room

import "encoding/json"

// EventType tags a room protocol message.
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventInitData     EventType = "init_data"
	EventChatMessage  EventType = "chat_message"
	EventGameStart    EventType = "game_start"
	EventReset        EventType = "reset"
	EventToHost       EventType = "to_host"
	EventFromHost     EventType = "from_host"
	EventSetPublic    EventType = "set_public"
	EventHostEvent    EventType = "host_event"
	EventGameEvent    EventType = "game_event"
	EventError        EventType = "error"
)

// Event is one room protocol message: a type tag plus a payload whose
// shape depends on the tag.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Role distinguishes the one authoritative participant from the rest.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// PlayerInfo is one participant's public listing.
type PlayerInfo struct {
	Name string `json:"name"`
	ID   uint32 `json:"id"`
}

// PlayerJoinedPayload announces a join. ID is nil in the inbound form
// (the room assigns ids) and set in the rebroadcast form.
type PlayerJoinedPayload struct {
	Name string  `json:"name"`
	ID   *uint32 `json:"id,omitempty"`
}

// PlayerLeftPayload announces a departure.
type PlayerLeftPayload struct {
	ID uint32 `json:"id"`
}

// InitDataPayload is sent privately to a participant right after their
// join is accepted: who is already here, who you are, and whether you
// ended up as the host.
type InitDataPayload struct {
	Players []PlayerInfo `json:"players"`
	ID      uint32       `json:"id"`
	Role    Role         `json:"role"`
}

// ChatMessagePayload carries a chat line. ID is stamped by the room
// with the sender's id on rebroadcast; the inbound value is ignored.
type ChatMessagePayload struct {
	Msg string  `json:"msg"`
	ID  *uint32 `json:"id,omitempty"`
}

// ToHostPayload carries an opaque game payload to the host. ID is
// stamped by the room with the sender's id on relay, so the host can
// check a request against who actually sent it; the inbound value is
// ignored.
type ToHostPayload struct {
	ID  *uint32         `json:"id,omitempty"`
	Msg json.RawMessage `json:"msg"`
}

// FromHostPayload addresses an opaque host message to one player.
type FromHostPayload struct {
	ID  uint32          `json:"id"`
	Msg json.RawMessage `json:"msg"`
}

// ErrorPayload tells a participant why their message was refused.
type ErrorPayload struct {
	Message string `json:"message"`
}

func newEvent(t EventType, payload interface{}) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{Type: t}
	}
	return Event{Type: t, Data: data}
}

// NewGameEvent wraps an opaque game payload for broadcast relay.
func NewGameEvent(payload json.RawMessage) Event {
	return Event{Type: EventGameEvent, Data: payload}
}

// NewToHost wraps an opaque game payload addressed to the host.
func NewToHost(payload json.RawMessage) Event {
	return newEvent(EventToHost, ToHostPayload{Msg: payload})
}

// NewFromHost wraps an opaque host payload addressed to one player.
func NewFromHost(id uint32, msg json.RawMessage) Event {
	return newEvent(EventFromHost, FromHostPayload{ID: id, Msg: msg})
}

// NewChat builds an inbound chat message.
func NewChat(msg string) Event {
	return newEvent(EventChatMessage, ChatMessagePayload{Msg: msg})
}

// NewJoin builds the join request a connecting participant sends first.
func NewJoin(name string) Event {
	return newEvent(EventPlayerJoined, PlayerJoinedPayload{Name: name})
}

// internal/engine/events.go
//
// The wire protocol between the authoritative host instance and its
// client mirrors. Every event is a tagged record {"type", "data"};
// payloads never carry another player's hand contents, so a client
// cannot reconstruct hidden information from traffic meant for
// someone else.
package engine

import (
	"encoding/json"
)

// EventType tags a protocol event.
type EventType string

const (
	EventInit         EventType = "init"
	EventDeal         EventType = "deal"
	EventPlayCard     EventType = "play_card"
	EventEndTurn      EventType = "end_turn"
	EventDrawRequest  EventType = "draw_request"
	EventDrawResponse EventType = "draw_response"
)

// Event is one serialized protocol message.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RosterEntry is one player's public listing.
type RosterEntry struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	HandSize int    `json:"hand_size"`
}

// HandCount pairs a player id with their public hand size.
type HandCount struct {
	ID    uint32 `json:"id"`
	Count int    `json:"count"`
}

// InitPayload seeds a freshly joining client's mirror. It carries the
// public table state only.
type InitPayload struct {
	Players       []RosterEntry `json:"players"`
	CurrentPlayer uint32        `json:"current_player"`
	Direction     Direction     `json:"direction"`
	Color         Color         `json:"color"`
	DiscardTop    *Card         `json:"discard_top,omitempty"`
	DrawCount     uint64        `json:"draw_count"`
	DrawLen       int           `json:"draw_len"`
}

// DealPayload communicates the initial deal. Cards is populated only
// in the per-recipient variant and holds the recipient's own hand.
type DealPayload struct {
	Counts        []HandCount `json:"counts"`
	Cards         []Card      `json:"cards,omitempty"`
	CurrentPlayer uint32      `json:"current_player"`
	Direction     Direction   `json:"direction"`
	Color         Color       `json:"color"`
	DiscardTop    *Card       `json:"discard_top,omitempty"`
	DrawLen       int         `json:"draw_len"`
}

// PlayCardPayload describes one resolved play. HandSize is the
// actor's remaining count after the card left their hand.
type PlayCardPayload struct {
	Player    uint32 `json:"player"`
	CardIndex int    `json:"card_index"`
	Card      Card   `json:"card"`
	Color     Color  `json:"color"`
	HandSize  int    `json:"hand_size"`
	GameOver  bool   `json:"game_over"`
}

// EndTurnPayload communicates turn advancement independent of a play,
// for example after a forced draw. HandSizes lets mirrors resync the
// public counts without learning any card.
type EndTurnPayload struct {
	CurrentPlayer uint32      `json:"current_player"`
	Direction     Direction   `json:"direction"`
	DrawCount     uint64      `json:"draw_count"`
	HandSizes     []HandCount `json:"hand_sizes"`
	DrawLen       int         `json:"draw_len"`
}

// DrawRequestPayload asks the host to draw on the requester's behalf;
// only the host may touch the draw pile.
type DrawRequestPayload struct {
	Player uint32 `json:"player"`
}

// DrawResponsePayload delivers drawn cards to the requester only. An
// empty Cards slice means the piles could not supply a card. EndsTurn
// marks a forced draw, which forfeits the requester's turn.
type DrawResponsePayload struct {
	Player   uint32 `json:"player"`
	Cards    []Card `json:"cards"`
	EndsTurn bool   `json:"ends_turn"`
}

// Outbound pairs an event with its audience. A nil To means
// broadcast; otherwise the event is for that player alone. Actually
// sending it is the transport's job, not the engine's.
type Outbound struct {
	To    *uint32
	Event Event
}

func newEvent(t EventType, payload interface{}) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload types marshal unconditionally; an error here means
		// a programming bug, surfaced as an empty event downstream.
		return Event{Type: t}
	}
	return Event{Type: t, Data: data}
}

func (g *Game) roster() []RosterEntry {
	entries := make([]RosterEntry, 0, len(g.players))
	for _, p := range g.players {
		entries = append(entries, RosterEntry{ID: p.ID, Name: p.Name, HandSize: p.HandSize})
	}
	return entries
}

func (g *Game) handCounts() []HandCount {
	counts := make([]HandCount, 0, len(g.players))
	for _, p := range g.players {
		counts = append(counts, HandCount{ID: p.ID, Count: p.HandSize})
	}
	return counts
}

func (g *Game) discardTop() *Card {
	if top, ok := g.deck.Last(); ok {
		return &top
	}
	return nil
}

// InitEvent captures the public table state a newly joining client
// needs to initialize its mirror. Host-only.
func (g *Game) InitEvent() Event {
	return newEvent(EventInit, InitPayload{
		Players:       g.roster(),
		CurrentPlayer: g.CurrentPlayer(),
		Direction:     g.direction,
		Color:         g.color,
		DiscardTop:    g.discardTop(),
		DrawCount:     g.drawCount,
		DrawLen:       g.deck.DrawLen(),
	})
}

// DealEvent describes the deal publicly: counts only, no cards.
// Host-only.
func (g *Game) DealEvent() Event {
	return newEvent(EventDeal, g.dealPayload(nil))
}

// DealEventFor is the private variant of DealEvent for one recipient,
// additionally carrying that player's own dealt cards. Host-only.
func (g *Game) DealEventFor(playerID uint32) Event {
	var cards []Card
	if p := g.playerByID(playerID); p != nil {
		cards = append(cards, p.Hand...)
	}
	return newEvent(EventDeal, g.dealPayload(cards))
}

func (g *Game) dealPayload(cards []Card) DealPayload {
	return DealPayload{
		Counts:        g.handCounts(),
		Cards:         cards,
		CurrentPlayer: g.CurrentPlayer(),
		Direction:     g.direction,
		Color:         g.color,
		DiscardTop:    g.discardTop(),
		DrawLen:       g.deck.DrawLen(),
	}
}

// PlayCardEvent describes playing the local player's card at
// cardIndex, built before the play is applied locally. Wild cards
// must already carry their assigned color. Returns false for an
// out-of-range index or an unassigned wild.
func (g *Game) PlayCardEvent(cardIndex int) (Event, bool) {
	p := g.playerByID(g.selfID)
	if p == nil || cardIndex < 0 || cardIndex >= len(p.Hand) {
		return Event{}, false
	}
	card := p.Hand[cardIndex]
	if card.IsWild() && !card.Color.Concrete() {
		return Event{}, false
	}
	return newEvent(EventPlayCard, PlayCardPayload{
		Player:    g.selfID,
		CardIndex: cardIndex,
		Card:      card,
		Color:     card.Color,
		HandSize:  len(p.Hand) - 1,
		GameOver:  len(p.Hand) == 1,
	}), true
}

// EndTurnEvent communicates the post-advance turn state. Host-only.
func (g *Game) EndTurnEvent() Event {
	return newEvent(EventEndTurn, EndTurnPayload{
		CurrentPlayer: g.CurrentPlayer(),
		Direction:     g.direction,
		DrawCount:     g.drawCount,
		HandSizes:     g.handCounts(),
		DrawLen:       g.deck.DrawLen(),
	})
}

// DrawRequest asks the host for a card on behalf of the local player.
func (g *Game) DrawRequest() Event {
	return newEvent(EventDrawRequest, DrawRequestPayload{Player: g.selfID})
}

// HandleEvent applies an incoming event to local state. Unrecognized
// or inapplicable events return InvalidCard and leave the state
// untouched; a play that empties a hand returns GameOver; everything
// else applied cleanly returns CardPlayed or Nothing.
func (g *Game) HandleEvent(ev Event) PlayResult {
	switch ev.Type {
	case EventInit:
		var p InitPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return InvalidCard
		}
		return g.applyInit(p)
	case EventDeal:
		var p DealPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return InvalidCard
		}
		return g.applyDeal(p)
	case EventPlayCard:
		var p PlayCardPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return InvalidCard
		}
		return g.applyPlayCard(p)
	case EventEndTurn:
		var p EndTurnPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return InvalidCard
		}
		return g.applyEndTurn(p)
	case EventDrawResponse:
		var p DrawResponsePayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return InvalidCard
		}
		return g.applyDrawResponse(p)
	default:
		return InvalidCard
	}
}

func (g *Game) applyInit(p InitPayload) PlayResult {
	if g.isHost {
		// The host never mirrors someone else's table.
		return InvalidCard
	}
	existing := make(map[uint32]*Player, len(g.players))
	for _, pl := range g.players {
		existing[pl.ID] = pl
	}
	g.players = g.players[:0]
	for _, entry := range p.Players {
		pl, ok := existing[entry.ID]
		if !ok {
			pl = NewPlayer(entry.Name, entry.ID)
		}
		pl.Name = entry.Name
		if pl.ID != g.selfID {
			pl.Hand = nil
		}
		pl.HandSize = entry.HandSize
		g.players = append(g.players, pl)
	}
	g.setCurrentByID(p.CurrentPlayer)
	g.direction = p.Direction
	g.color = p.Color
	g.drawCount = p.DrawCount
	g.awaitingForcedDraw = p.DrawCount > 0
	g.mirrorDrawLen = p.DrawLen
	g.deck = Deck{}
	if p.DiscardTop != nil {
		g.deck.Discard(*p.DiscardTop)
	}
	g.over = false
	return Nothing
}

func (g *Game) applyDeal(p DealPayload) PlayResult {
	if g.isHost {
		return InvalidCard
	}
	for _, hc := range p.Counts {
		pl := g.playerByID(hc.ID)
		if pl == nil {
			continue
		}
		if pl.ID != g.selfID {
			pl.Hand = nil
		}
		pl.HandSize = hc.Count
	}
	if len(p.Cards) > 0 {
		if self := g.playerByID(g.selfID); self != nil {
			self.Hand = append([]Card(nil), p.Cards...)
			self.HandSize = len(self.Hand)
		}
	}
	g.setCurrentByID(p.CurrentPlayer)
	g.direction = p.Direction
	g.color = p.Color
	g.drawCount = 0
	g.awaitingForcedDraw = false
	g.skipNext = false
	g.mirrorDrawLen = p.DrawLen
	g.deck = Deck{}
	if p.DiscardTop != nil {
		g.deck.Discard(*p.DiscardTop)
	}
	g.over = false
	return Nothing
}

func (g *Game) applyPlayCard(p PlayCardPayload) PlayResult {
	if g.over {
		return Nothing
	}
	if p.Player == g.selfID {
		// Our own play was applied locally before the event went out.
		return Nothing
	}
	actor := g.playerByID(p.Player)
	if actor == nil || actor.ID != g.CurrentPlayer() {
		return InvalidCard
	}
	if g.isHost {
		return g.applyRemotePlayAuthoritative(actor, p)
	}
	// Mirror path: trust the host-validated payload.
	g.deck.Discard(p.Card)
	g.color = p.Color
	actor.HandSize = p.HandSize
	if p.GameOver {
		g.over = true
		return GameOver
	}
	g.applyEffects(p.Card)
	g.awaitingForcedDraw = false
	g.advance()
	return CardPlayed
}

// applyRemotePlayAuthoritative validates a client-originated play
// against the full authoritative hand before mutating anything.
func (g *Game) applyRemotePlayAuthoritative(actor *Player, p PlayCardPayload) PlayResult {
	if p.CardIndex < 0 || p.CardIndex >= len(actor.Hand) {
		return InvalidCard
	}
	held := actor.Hand[p.CardIndex]
	if held.Type != p.Card.Type {
		return InvalidCard
	}
	if held.IsWild() {
		if !p.Card.Color.Concrete() {
			return InvalidCard
		}
		// The acting client assigned the wild color on its own
		// instance; stamp it on the authoritative copy.
		actor.Hand[p.CardIndex].Color = p.Card.Color
	} else if held.Color != p.Card.Color {
		return InvalidCard
	}
	if !g.playable(actor.Hand[p.CardIndex]) {
		if held.IsWild() {
			actor.Hand[p.CardIndex].Color = held.Color
		}
		return InvalidCard
	}
	card := actor.Hand[p.CardIndex]
	g.awaitingForcedDraw = false
	actor.removeAt(p.CardIndex)
	g.deck.Discard(card)
	g.color = card.Color
	if len(actor.Hand) == 0 {
		g.over = true
		return GameOver
	}
	g.applyEffects(card)
	g.advance()
	return CardPlayed
}

func (g *Game) applyEndTurn(p EndTurnPayload) PlayResult {
	if g.isHost {
		// The host decides turn order itself.
		return InvalidCard
	}
	for _, hc := range p.HandSizes {
		pl := g.playerByID(hc.ID)
		if pl == nil {
			continue
		}
		if pl.ID == g.selfID {
			continue
		}
		pl.Hand = nil
		pl.HandSize = hc.Count
	}
	if self := g.playerByID(g.selfID); self != nil {
		self.HandSize = len(self.Hand)
	}
	g.setCurrentByID(p.CurrentPlayer)
	g.direction = p.Direction
	g.drawCount = p.DrawCount
	g.awaitingForcedDraw = p.DrawCount > 0
	g.mirrorDrawLen = p.DrawLen
	return Nothing
}

func (g *Game) applyDrawResponse(p DrawResponsePayload) PlayResult {
	if p.Player != g.selfID {
		return InvalidCard
	}
	self := g.playerByID(g.selfID)
	if self == nil {
		return InvalidCard
	}
	for _, c := range p.Cards {
		self.Draw(c)
	}
	return Nothing
}

// HandleHostEvent is the host-side entry point for events originated
// by non-authoritative participants. It validates, mutates the
// authoritative state, and returns the events to emit; delivering
// them is the transport's job. Nil means the event was rejected or
// inapplicable, with no state change.
func (g *Game) HandleHostEvent(ev Event) []Outbound {
	if !g.isHost || g.over {
		return nil
	}
	switch ev.Type {
	case EventDrawRequest:
		var p DrawRequestPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return nil
		}
		return g.serveDrawRequest(p)
	case EventPlayCard:
		var p PlayCardPayload
		if json.Unmarshal(ev.Data, &p) != nil {
			return nil
		}
		result := g.HandleEvent(ev)
		if result == InvalidCard || result == Nothing {
			return g.resyncFor(p.Player)
		}
		return []Outbound{{Event: ev}}
	case EventEndTurn:
		// A voluntary pass after drawing. The inbound payload is not
		// trusted; the host advances its own state and rebroadcasts
		// the authoritative turn.
		if g.awaitingForcedDraw {
			return nil
		}
		g.EndTurn()
		return []Outbound{{Event: g.EndTurnEvent()}}
	default:
		return nil
	}
}

// resyncFor rebuilds one client's mirror after a play it had already
// applied locally was rejected here, typically because a turn change
// was still in flight toward it. The private deal restores the
// authoritative hand, the init that follows restores the public table
// state on top of it.
func (g *Game) resyncFor(playerID uint32) []Outbound {
	if playerID == g.selfID || g.playerByID(playerID) == nil {
		return nil
	}
	to := playerID
	return []Outbound{
		{To: &to, Event: g.DealEventFor(to)},
		{To: &to, Event: g.InitEvent()},
	}
}

// serveDrawRequest fulfills a client's draw. Only the current player
// may draw. A pending draw chain forces the full debt and forfeits
// the turn; otherwise a single card is drawn and the turn stays open.
func (g *Game) serveDrawRequest(p DrawRequestPayload) []Outbound {
	requester := g.playerByID(p.Player)
	if requester == nil || requester.ID != g.CurrentPlayer() {
		return nil
	}
	to := requester.ID
	if g.drawCount > 0 {
		drawn := g.ResolveForcedDraw()
		return []Outbound{
			{To: &to, Event: newEvent(EventDrawResponse, DrawResponsePayload{
				Player:   to,
				Cards:    drawn,
				EndsTurn: true,
			})},
			{Event: g.EndTurnEvent()},
		}
	}
	cards := []Card{}
	if card, ok := g.deck.DrawOne(g.rng); ok {
		requester.Draw(card)
		cards = append(cards, card)
	}
	return []Outbound{
		{To: &to, Event: newEvent(EventDrawResponse, DrawResponsePayload{
			Player: to,
			Cards:  cards,
		})},
	}
}

func (g *Game) setCurrentByID(id uint32) {
	for i, p := range g.players {
		if p.ID == id {
			g.current = i
			return
		}
	}
}

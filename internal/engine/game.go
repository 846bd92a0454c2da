// internal/engine/game.go
package engine

import (
	"math/rand"
	"time"
)

// startingHandSize is the number of cards dealt to each player on Reset.
const startingHandSize = 7

// Game is the full table state machine. One instance exists per
// participant: the host instance is authoritative over the piles and
// turn order, client instances mirror it by applying events. The
// engine is single-threaded; callers serialize access themselves.
type Game struct {
	players   []*Player
	current   int
	direction Direction
	color     Color
	deck      Deck
	drawCount uint64
	isHost    bool
	selfID    uint32
	over      bool

	// skipNext makes the next advance step over one extra player.
	skipNext bool
	// awaitingForcedDraw parks the turn on the player owing drawCount
	// cards; EndTurn will not move past them until the debt resolves.
	awaitingForcedDraw bool

	// mirrorDrawLen is the host-reported draw pile size, tracked on
	// clients whose deck holds only the discard anchor.
	mirrorDrawLen int

	rng *rand.Rand
}

// NewGame creates a game seated with the initiating player. The Game
// owns the player afterwards. isHost marks this instance as the
// authoritative one.
func NewGame(player *Player, isHost bool) *Game {
	return NewGameWithRand(player, isHost, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewGameWithRand is NewGame with an injected random source, used by
// tests for reproducible shuffles.
func NewGameWithRand(player *Player, isHost bool, rng *rand.Rand) *Game {
	g := &Game{
		isHost:    isHost,
		selfID:    player.ID,
		direction: Clockwise,
		color:     ColorNone,
		deck:      NewDeck(),
		rng:       rng,
	}
	g.players = append(g.players, player)
	return g
}

// IsHost reports whether this instance is authoritative.
func (g *Game) IsHost() bool { return g.isHost }

// SelfID returns the id of the player this instance belongs to.
func (g *Game) SelfID() uint32 { return g.selfID }

// Over reports whether the game has reached its terminal state.
func (g *Game) Over() bool { return g.over }

// AddPlayer seats a player. Ids are unique; a duplicate id is ignored.
func (g *Game) AddPlayer(p *Player) {
	if g.playerByID(p.ID) != nil {
		return
	}
	g.players = append(g.players, p)
}

// RemovePlayer unseats a player by id. This is an administrative
// operation, not a play: the removed hand simply leaves the table.
func (g *Game) RemovePlayer(id uint32) {
	for i, p := range g.players {
		if p.ID != id {
			continue
		}
		g.players = append(g.players[:i], g.players[i+1:]...)
		if len(g.players) == 0 {
			g.current = 0
			return
		}
		if i < g.current {
			g.current--
		}
		if g.current >= len(g.players) {
			g.current = 0
		}
		return
	}
}

// Players returns the seated players in insertion order.
func (g *Game) Players() []*Player { return g.players }

// CurrentPlayer returns the id of the player whose turn it is.
func (g *Game) CurrentPlayer() uint32 {
	if len(g.players) == 0 {
		return 0
	}
	return g.players[g.current].ID
}

// Color returns the active color, the constraint the next play must
// satisfy. It can differ from the top card's printed color only while
// no card has been played yet.
func (g *Game) Color() Color { return g.color }

// Direction returns the current turn rotation.
func (g *Game) Direction() Direction { return g.direction }

// DrawCount returns the pending forced-draw amount of the open
// PlusTwo/PlusFour chain, or zero when no chain is open.
func (g *Game) DrawCount() uint64 { return g.drawCount }

// Last returns the top card of the discard pile.
func (g *Game) Last() (Card, bool) { return g.deck.Last() }

// DrawLen returns the size of the draw pile. On a client this is the
// host-reported size carried by the latest event.
func (g *Game) DrawLen() int {
	if !g.isHost {
		return g.mirrorDrawLen
	}
	return g.deck.DrawLen()
}

// DiscardLen returns the size of the discard pile.
func (g *Game) DiscardLen() int { return g.deck.DiscardLen() }

// OwnHand returns the local player's hand.
func (g *Game) OwnHand() []Card {
	if p := g.playerByID(g.selfID); p != nil {
		return p.Hand
	}
	return nil
}

// Shuffle randomizes the draw pile.
func (g *Game) Shuffle() { g.deck.Shuffle(g.rng) }

func (g *Game) playerByID(id uint32) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) currentPlayer() *Player {
	if len(g.players) == 0 {
		return nil
	}
	return g.players[g.current]
}

// Reset starts a fresh round: new shuffled deck, seven cards to every
// player, and a colored starter flipped onto the discard pile. Wild
// starters are cycled to the bottom of the draw pile so the table
// always opens with a concrete color. Client mirrors only clear their
// state; the deal arrives by event.
func (g *Game) Reset() {
	g.deck = NewDeck()
	g.current = 0
	g.direction = Clockwise
	g.color = ColorNone
	g.drawCount = 0
	g.skipNext = false
	g.awaitingForcedDraw = false
	g.over = false
	for _, p := range g.players {
		p.Hand = nil
		p.HandSize = 0
	}
	if !g.isHost {
		return
	}
	g.deck.Shuffle(g.rng)
	for i := 0; i < startingHandSize; i++ {
		for _, p := range g.players {
			if card, ok := g.deck.DrawOne(g.rng); ok {
				p.Draw(card)
			}
		}
	}
	for attempts := g.deck.DrawLen(); attempts > 0; attempts-- {
		card, _ := g.deck.DrawOne(g.rng)
		if card.IsWild() {
			g.deck.draw = append(g.deck.draw, card)
			g.deck.cycleToBottom()
			continue
		}
		g.deck.Discard(card)
		g.color = card.Color
		break
	}
}

// DrawOne removes and returns the top draw card, reshuffling the
// discard pile underneath the anchor card first if needed. The second
// return is false when both piles are exhausted; that is a defined
// outcome, not an error.
func (g *Game) DrawOne() (Card, bool) {
	return g.deck.DrawOne(g.rng)
}

// SetWildColor assigns a concrete color to the wild card at cardIndex
// in the local player's hand. Assignments to non-wild cards or of
// non-concrete colors are ignored.
func (g *Game) SetWildColor(cardIndex int, color Color) {
	p := g.playerByID(g.selfID)
	if p == nil || cardIndex < 0 || cardIndex >= len(p.Hand) {
		return
	}
	if !p.Hand[cardIndex].IsWild() || !color.Concrete() {
		return
	}
	p.Hand[cardIndex].Color = color
}

// playable checks the legality rule for putting c on the table now.
// While a draw chain is open only Plus cards keep it alive: PlusTwo
// answers PlusTwo, PlusFour answers either Plus card, and nothing
// else is legal until the debt is drawn.
func (g *Game) playable(c Card) bool {
	top, ok := g.deck.Last()
	if !ok {
		return true
	}
	if g.drawCount > 0 {
		switch top.Type {
		case PlusTwo:
			return c.Type == PlusTwo || c.Type == PlusFour
		case PlusFour:
			return c.Type == PlusFour
		default:
			return false
		}
	}
	if c.IsWild() {
		return true
	}
	if top.IsWild() {
		// A wild on top carries its assigned color; that color is the
		// constraint, not the wild's anything-goes compatibility.
		return c.Color == g.color
	}
	return c.CompatibleWith(top)
}

// applyEffects records the side effects of a just-discarded card.
// Reverse acts as Skip at a two-player table.
func (g *Game) applyEffects(c Card) {
	switch c.Type {
	case Skip:
		g.skipNext = true
	case Reverse:
		if len(g.players) == 2 {
			g.skipNext = true
		} else {
			g.direction = g.direction.Flip()
		}
	case PlusTwo:
		g.drawCount += 2
	case PlusFour:
		g.drawCount += 4
	}
}

// advance moves current to the adjacent player in direction, stepping
// over one extra seat when a Skip is pending. Landing on a player who
// owes a forced draw parks the turn there.
func (g *Game) advance() {
	n := len(g.players)
	if n == 0 {
		return
	}
	step := 1
	if g.skipNext {
		step = 2
		g.skipNext = false
	}
	if g.direction == Clockwise {
		g.current = (g.current + step) % n
	} else {
		g.current = ((g.current-step)%n + n) % n
	}
	if g.drawCount > 0 {
		g.awaitingForcedDraw = true
	}
}

// EndTurn advances the turn. It does nothing once the game is over,
// and does not move past a player who still owes a forced draw.
func (g *Game) EndTurn() {
	if g.over || g.awaitingForcedDraw {
		return
	}
	g.advance()
}

// Play resolves an unattached card, one not held in any seated hand,
// for example a card just received in a draw response. The card lands
// on the discard pile and its effects resolve exactly as for a hand
// play, but no hand shrinks, so Play can never end the game.
func (g *Game) Play(card Card) PlayResult {
	if g.over {
		return Nothing
	}
	if card.IsWild() && !card.Color.Concrete() {
		return InvalidCard
	}
	if !g.playable(card) {
		return InvalidCard
	}
	g.awaitingForcedDraw = false
	g.deck.Discard(card)
	g.color = card.Color
	g.applyEffects(card)
	g.advance()
	return CardPlayed
}

// PlayIndex resolves a play of the current player's card at the given
// hand position. Later hand indices shift down by one on success;
// callers must not reuse stale indices. An out-of-range index is
// InvalidCard, never a fault.
func (g *Game) PlayIndex(cardIndex int) PlayResult {
	if g.over {
		return Nothing
	}
	actor := g.currentPlayer()
	if actor == nil || cardIndex < 0 || cardIndex >= len(actor.Hand) {
		return InvalidCard
	}
	card := actor.Hand[cardIndex]
	if card.IsWild() && !card.Color.Concrete() {
		return InvalidCard
	}
	if !g.playable(card) {
		return InvalidCard
	}
	g.awaitingForcedDraw = false
	actor.removeAt(cardIndex)
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

// ResolveForcedDraw makes the current player draw the whole pending
// drawCount and forfeits their turn. The drawn cards are returned so
// the host can deliver them privately. A shortfall when the piles run
// dry is absorbed silently. No-op unless a debt is actually owed.
func (g *Game) ResolveForcedDraw() []Card {
	if g.over || g.drawCount == 0 {
		return nil
	}
	actor := g.currentPlayer()
	if actor == nil {
		g.drawCount = 0
		g.awaitingForcedDraw = false
		return nil
	}
	drawn := make([]Card, 0, g.drawCount)
	for i := uint64(0); i < g.drawCount; i++ {
		card, ok := g.deck.DrawOne(g.rng)
		if !ok {
			break
		}
		actor.Draw(card)
		drawn = append(drawn, card)
	}
	g.drawCount = 0
	g.awaitingForcedDraw = false
	g.advance()
	return drawn
}

// internal/engine/game_test.go
package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTable builds a host game with fully controlled hands, a Red N5
// on the discard pile and a small spare draw pile.
func setupTable(t *testing.T, hands ...[]Card) *Game {
	t.Helper()
	require.NotEmpty(t, hands)

	g := NewGameWithRand(NewPlayer("p0", 0), true, testRand())
	for i := 1; i < len(hands); i++ {
		g.AddPlayer(NewPlayer(fmt.Sprintf("p%d", i), uint32(i)))
	}
	for i, h := range hands {
		g.players[i].Hand = append([]Card(nil), h...)
		g.players[i].HandSize = len(h)
	}

	spare := []Card{}
	for ty := N0; ty <= N9; ty++ {
		spare = append(spare, Card{Type: ty, Color: Green})
	}
	g.deck = Deck{draw: spare}
	g.deck.Discard(Card{Type: N5, Color: Red})
	g.color = Red
	return g
}

func totalCards(g *Game) int {
	total := g.deck.DrawLen() + g.deck.DiscardLen()
	for _, p := range g.players {
		total += len(p.Hand)
	}
	return total
}

func TestResetDealsSevenEach(t *testing.T) {
	g := NewGameWithRand(NewPlayer("alice", 0), true, testRand())
	g.AddPlayer(NewPlayer("bob", 1))
	g.Reset()

	for _, p := range g.Players() {
		assert.Len(t, p.Hand, 7)
		assert.Equal(t, 7, p.HandSize)
	}
	assert.Equal(t, 108, totalCards(g), "every card is somewhere")
	assert.Equal(t, 94, g.DrawLen()+g.DiscardLen(), "two hands of seven leave 94 on the table")

	top, ok := g.Last()
	require.True(t, ok, "reset flips a starter card")
	assert.False(t, top.IsWild(), "the starter is never a wild")
	assert.Equal(t, top.Color, g.Color())
	assert.Equal(t, uint32(0), g.CurrentPlayer())
	assert.Equal(t, Clockwise, g.Direction())
	assert.False(t, g.Over())
}

func TestPlayIndexLegality(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: N7, Color: Red}, {Type: N9, Color: Blue}},
		[]Card{{Type: N1, Color: Red}},
	)

	assert.Equal(t, InvalidCard, g.PlayIndex(1), "blue nine does not match red five")
	assert.Len(t, g.players[0].Hand, 2, "a rejected play must not touch the hand")
	assert.Equal(t, uint32(0), g.CurrentPlayer())

	assert.Equal(t, InvalidCard, g.PlayIndex(5), "out of range is invalid, not fatal")
	assert.Equal(t, InvalidCard, g.PlayIndex(-1))

	assert.Equal(t, CardPlayed, g.PlayIndex(0), "red seven matches red five")
	top, _ := g.Last()
	assert.Equal(t, Card{Type: N7, Color: Red}, top)
	assert.Equal(t, Red, g.Color())
	assert.Len(t, g.players[0].Hand, 1, "later indices shift down")
	assert.Equal(t, uint32(1), g.CurrentPlayer(), "turn advanced")
}

func TestWildNeedsAssignedColor(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: Wild, Color: ColorNone}, {Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
	)

	assert.Equal(t, InvalidCard, g.PlayIndex(0), "an unassigned wild cannot land on the pile")

	g.SetWildColor(0, Blue)
	assert.Equal(t, CardPlayed, g.PlayIndex(0))
	assert.Equal(t, Blue, g.Color(), "the assigned color becomes the active color")
	top, _ := g.Last()
	assert.Equal(t, Blue, top.Color, "the pile never shows an unassigned wild")
}

func TestWildTopConstrainsToAssignedColor(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: Wild, Color: ColorNone}, {Type: N2, Color: Red}},
		[]Card{{Type: N9, Color: Red}, {Type: N9, Color: Blue}, {Type: Wild, Color: ColorNone}},
	)
	g.SetWildColor(0, Blue)
	require.Equal(t, CardPlayed, g.PlayIndex(0))
	require.Equal(t, Blue, g.Color())

	// The wild on top is not a free-for-all: the chosen color binds.
	assert.Equal(t, InvalidCard, g.PlayIndex(0), "red nine does not match the chosen blue")
	assert.Equal(t, CardPlayed, g.PlayIndex(1))
	top, _ := g.Last()
	assert.Equal(t, Card{Type: N9, Color: Blue}, top)
}

func TestSetWildColorIgnoresNonWild(t *testing.T) {
	g := setupTable(t, []Card{{Type: N7, Color: Red}})
	g.SetWildColor(0, Blue)
	assert.Equal(t, Red, g.players[0].Hand[0].Color)

	// Out-of-range assignments are ignored too.
	g.SetWildColor(9, Blue)
}

func TestSkipAdvancesTwoSeats(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: Skip, Color: Red}, {Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
		[]Card{{Type: N2, Color: Green}},
	)

	require.Equal(t, CardPlayed, g.PlayIndex(0))
	assert.Equal(t, uint32(2), g.CurrentPlayer(), "skip steps over one player")
}

func TestReverseFlipsDirection(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: Reverse, Color: Red}, {Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
		[]Card{{Type: N2, Color: Green}},
	)

	require.Equal(t, CardPlayed, g.PlayIndex(0))
	assert.Equal(t, CounterClockwise, g.Direction())
	assert.Equal(t, uint32(2), g.CurrentPlayer(), "reversal walks the other way around")
}

func TestReverseActsAsSkipWithTwoPlayers(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: Reverse, Color: Red}, {Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
	)

	require.Equal(t, CardPlayed, g.PlayIndex(0))
	assert.Equal(t, Clockwise, g.Direction(), "direction is moot at a two-seat table")
	assert.Equal(t, uint32(0), g.CurrentPlayer(), "the same player acts again")
}

func TestEndTurnMonotonicity(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
		[]Card{{Type: N2, Color: Green}},
	)

	g.EndTurn()
	assert.Equal(t, uint32(1), g.CurrentPlayer())
	g.EndTurn()
	assert.Equal(t, uint32(2), g.CurrentPlayer())
	g.EndTurn()
	assert.Equal(t, uint32(0), g.CurrentPlayer(), "wraps around the table")
}

func TestDrawStackAccumulation(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: PlusTwo, Color: Red}, {Type: N1, Color: Red}},
		[]Card{{Type: PlusTwo, Color: Blue}, {Type: N1, Color: Green}},
	)

	require.Equal(t, CardPlayed, g.PlayIndex(0))
	assert.Equal(t, uint64(2), g.DrawCount())
	assert.Equal(t, uint32(1), g.CurrentPlayer())

	// The owing player counters with another PlusTwo.
	require.Equal(t, CardPlayed, g.PlayIndex(0))
	assert.Equal(t, uint64(4), g.DrawCount())
	assert.Equal(t, uint32(0), g.CurrentPlayer())

	before := len(g.players[0].Hand)
	drawn := g.ResolveForcedDraw()
	assert.Len(t, drawn, 4, "the whole accumulated debt is drawn at once")
	assert.Len(t, g.players[0].Hand, before+4)
	assert.Equal(t, uint64(0), g.DrawCount(), "the chain closes once drawn")
	assert.Equal(t, uint32(1), g.CurrentPlayer(), "a forced draw forfeits the turn")
}

func TestDrawChainLegality(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: PlusTwo, Color: Red}},
		[]Card{
			{Type: N5, Color: Red},          // compatible, but not a Plus
			{Type: PlusFour, Color: Green},  // pre-assigned wild
			{Type: PlusTwo, Color: Yellow},
		},
		[]Card{{Type: PlusTwo, Color: Green}},
	)

	require.Equal(t, CardPlayed, g.PlayIndex(0))
	require.Equal(t, uint32(1), g.CurrentPlayer())

	assert.Equal(t, InvalidCard, g.PlayIndex(0), "only Plus cards keep a chain alive")

	require.Equal(t, CardPlayed, g.PlayIndex(1), "PlusFour answers PlusTwo")
	assert.Equal(t, uint64(6), g.DrawCount())
	require.Equal(t, uint32(2), g.CurrentPlayer())

	assert.Equal(t, InvalidCard, g.PlayIndex(0), "PlusTwo cannot answer PlusFour")
}

func TestEndTurnParkedOnForcedDraw(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: PlusTwo, Color: Red}, {Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
	)

	require.Equal(t, CardPlayed, g.PlayIndex(0))
	require.Equal(t, uint32(1), g.CurrentPlayer())

	g.EndTurn()
	assert.Equal(t, uint32(1), g.CurrentPlayer(), "the debtor cannot be skipped past")

	g.ResolveForcedDraw()
	assert.Equal(t, uint32(0), g.CurrentPlayer())
	g.EndTurn()
	assert.Equal(t, uint32(1), g.CurrentPlayer(), "normal advancement resumes")
}

func TestWinDetection(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: N5, Color: Blue}},
		[]Card{{Type: N1, Color: Green}},
	)

	assert.Equal(t, GameOver, g.PlayIndex(0), "emptying the hand ends the game")
	assert.True(t, g.Over())
	assert.Equal(t, uint32(0), g.CurrentPlayer(), "no advancement after game over")

	g.EndTurn()
	assert.Equal(t, uint32(0), g.CurrentPlayer())
	assert.Equal(t, Nothing, g.PlayIndex(0), "further plays are no-ops")
}

func TestPlayUnattachedCard(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
	)

	assert.Equal(t, InvalidCard, g.Play(Card{Type: N9, Color: Blue}))
	assert.Equal(t, CardPlayed, g.Play(Card{Type: N9, Color: Red}))
	top, _ := g.Last()
	assert.Equal(t, Card{Type: N9, Color: Red}, top)
	assert.Equal(t, uint32(1), g.CurrentPlayer())
	assert.Len(t, g.players[0].Hand, 1, "an unattached play leaves hands alone")
}

func TestForcedDrawSurvivesExhaustedPiles(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: PlusTwo, Color: Red}, {Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
	)
	g.deck.draw = nil // only the buried starter is left to recycle

	require.Equal(t, CardPlayed, g.PlayIndex(0))
	drawn := g.ResolveForcedDraw()
	assert.Len(t, drawn, 1, "the shortfall is absorbed silently")
	assert.Equal(t, uint64(0), g.DrawCount())
	assert.Equal(t, uint32(0), g.CurrentPlayer())
}

func TestRemovePlayerKeepsTurnValid(t *testing.T) {
	g := setupTable(t,
		[]Card{{Type: N1, Color: Red}},
		[]Card{{Type: N1, Color: Green}},
		[]Card{{Type: N2, Color: Green}},
	)
	g.EndTurn()
	require.Equal(t, uint32(1), g.CurrentPlayer())

	g.RemovePlayer(0)
	assert.Equal(t, uint32(1), g.CurrentPlayer(), "removal before the cursor keeps the same player current")
	assert.Len(t, g.Players(), 2)

	g.RemovePlayer(2)
	assert.Equal(t, uint32(1), g.CurrentPlayer())

	g.AddPlayer(NewPlayer("p1", 1))
	assert.Len(t, g.Players(), 1, "duplicate ids are ignored")
}

func TestConservationThroughPlay(t *testing.T) {
	g := NewGameWithRand(NewPlayer("alice", 0), true, testRand())
	g.AddPlayer(NewPlayer("bob", 1))
	g.Reset()
	require.Equal(t, 108, totalCards(g))

	// Draw and immediately table the card, as after a draw response.
	for i := 0; i < 20; i++ {
		card, ok := g.DrawOne()
		require.True(t, ok)
		if g.Play(card) == InvalidCard {
			// Not playable; park it in the current hand instead.
			g.currentPlayer().Draw(card)
			g.EndTurn()
		}
		require.Equal(t, 108, totalCards(g), "conservation must hold after step %d", i)
	}
}

// internal/engine/view.go
package engine

// CardView obfuscates face-down cards: Known is true only when the
// viewer is entitled to the card's face.
type CardView struct {
	Known bool      `json:"known"`
	Type  *CardType `json:"type,omitempty"`
	Color *Color    `json:"color,omitempty"`
	Idx   int       `json:"idx"`
}

// PlayerView is one player's state as seen by the requesting viewer.
type PlayerView struct {
	ID            uint32     `json:"id"`
	Name          string     `json:"name"`
	HandSize      int        `json:"hand_size"`
	IsCurrentTurn bool       `json:"is_current_turn"`
	Hand          []CardView `json:"hand,omitempty"`
}

// GameView is the per-viewer projection of a Game: the full public
// table state plus the viewer's own hand, and structurally nothing
// else. Generated from the authoritative state, never assembled by a
// client from trust.
type GameView struct {
	Players       []PlayerView `json:"players"`
	CurrentPlayer uint32       `json:"current_player"`
	Direction     Direction    `json:"direction"`
	Color         Color        `json:"color"`
	DiscardTop    *Card        `json:"discard_top,omitempty"`
	DrawLen       int          `json:"draw_len"`
	DiscardLen    int          `json:"discard_len"`
	DrawCount     uint64       `json:"draw_count"`
	Over          bool         `json:"over"`
}

// Snapshot generates the view of the game for one viewer. Only the
// viewer's own cards are revealed; every other hand appears as a row
// of unknown cards.
func (g *Game) Snapshot(forPlayer uint32) GameView {
	view := GameView{
		CurrentPlayer: g.CurrentPlayer(),
		Direction:     g.direction,
		Color:         g.color,
		DiscardTop:    g.discardTop(),
		DrawLen:       g.DrawLen(),
		DiscardLen:    g.deck.DiscardLen(),
		DrawCount:     g.drawCount,
		Over:          g.over,
	}
	for i, p := range g.players {
		pv := PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			HandSize:      p.HandSize,
			IsCurrentTurn: i == g.current,
		}
		if p.ID == forPlayer {
			pv.Hand = make([]CardView, len(p.Hand))
			for j := range p.Hand {
				t, c := p.Hand[j].Type, p.Hand[j].Color
				pv.Hand[j] = CardView{Known: true, Type: &t, Color: &c, Idx: j}
			}
		} else if p.HandSize > 0 {
			pv.Hand = make([]CardView, p.HandSize)
			for j := range pv.Hand {
				pv.Hand[j] = CardView{Idx: j}
			}
		}
		view.Players = append(view.Players, pv)
	}
	return view
}

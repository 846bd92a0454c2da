// internal/engine/player.go
package engine

// Player is one seat at the table. On the host every player's Hand is
// populated; on a client mirror only the local player's Hand holds
// cards, and remote players expose nothing beyond HandSize. A Player
// handed to NewGame or AddPlayer is owned by that Game afterwards.
type Player struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`

	// Hand is ordered: play and discard address cards by index, and
	// removing a card shifts later indices down by one.
	Hand []Card `json:"-"`

	// HandSize mirrors len(Hand) on the host, and is the only hand
	// information a client holds for remote players.
	HandSize int `json:"hand_size"`
}

// NewPlayer creates a player with an empty hand.
func NewPlayer(name string, id uint32) *Player {
	return &Player{ID: id, Name: name}
}

// Draw appends a card to the hand.
func (p *Player) Draw(c Card) {
	p.Hand = append(p.Hand, c)
	p.HandSize = len(p.Hand)
}

// removeAt takes the card at idx out of the hand. Returns false on an
// out-of-range index.
func (p *Player) removeAt(idx int) (Card, bool) {
	if idx < 0 || idx >= len(p.Hand) {
		return Card{}, false
	}
	c := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	p.HandSize = len(p.Hand)
	return c, true
}

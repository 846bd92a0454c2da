// internal/engine/deck.go
package engine

import "math/rand"

// Deck holds the two table piles. The top of each pile is the last
// element of its slice.
type Deck struct {
	draw    []Card
	discard []Card
}

// NewDeck builds a deck with the full card set on the draw pile,
// unshuffled, and an empty discard pile.
func NewDeck() Deck {
	return Deck{draw: FullDeck()}
}

// Shuffle permutes the draw pile in place.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}

// DrawOne removes and returns the top card of the draw pile. When the
// draw pile is empty, everything but the top discard card is
// reshuffled into the draw pile first; the top discard stays put as
// the compatibility anchor. If no card can be supplied at all the
// second return is false.
func (d *Deck) DrawOne(rng *rand.Rand) (Card, bool) {
	if len(d.draw) == 0 {
		if len(d.discard) <= 1 {
			return Card{}, false
		}
		top := d.discard[len(d.discard)-1]
		d.draw = append(d.draw, d.discard[:len(d.discard)-1]...)
		d.discard = d.discard[:0]
		d.discard = append(d.discard, top)
		d.Shuffle(rng)
	}
	card := d.draw[len(d.draw)-1]
	d.draw = d.draw[:len(d.draw)-1]
	return card, true
}

// Discard places a card on top of the discard pile.
func (d *Deck) Discard(c Card) {
	d.discard = append(d.discard, c)
}

// Last returns the top card of the discard pile.
func (d *Deck) Last() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// DrawLen returns the number of cards left in the draw pile.
func (d *Deck) DrawLen() int { return len(d.draw) }

// DiscardLen returns the number of cards on the discard pile.
func (d *Deck) DiscardLen() int { return len(d.discard) }

// cycleToBottom moves the top draw card underneath the pile. Used
// when the starter flip turns up a wild.
func (d *Deck) cycleToBottom() {
	if len(d.draw) < 2 {
		return
	}
	top := d.draw[len(d.draw)-1]
	copy(d.draw[1:], d.draw[:len(d.draw)-1])
	d.draw[0] = top
}

// internal/engine/card.go
package engine

import (
	"encoding/json"
	"fmt"
)

// Color is the closed set of card colors. Wild cards carry ColorNone
// until the acting player assigns one of the four concrete colors at
// play time.
type Color int

const (
	Red Color = iota
	Green
	Yellow
	Blue
	ColorNone
)

var colorNames = map[Color]string{
	Red:       "red",
	Green:     "green",
	Yellow:    "yellow",
	Blue:      "blue",
	ColorNone: "none",
}

// Concrete reports whether c is one of the four playable colors.
func (c Color) Concrete() bool {
	return c >= Red && c <= Blue
}

func (c Color) String() string {
	if s, ok := colorNames[c]; ok {
		return s
	}
	return fmt.Sprintf("invalid_color(%d)", int(c))
}

// ParseColor maps a wire string back onto the closed Color set.
func ParseColor(s string) (Color, error) {
	for c, name := range colorNames {
		if s == name {
			return c, nil
		}
	}
	return ColorNone, fmt.Errorf("unknown color %q", s)
}

func (c Color) MarshalJSON() ([]byte, error) {
	if _, ok := colorNames[c]; !ok {
		return nil, fmt.Errorf("cannot marshal invalid color %d", int(c))
	}
	return json.Marshal(c.String())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CardType is the closed set of card faces.
type CardType int

const (
	N0 CardType = iota
	N1
	N2
	N3
	N4
	N5
	N6
	N7
	N8
	N9
	PlusTwo
	Skip
	Reverse
	Wild
	PlusFour
)

var cardTypeNames = map[CardType]string{
	N0: "n0", N1: "n1", N2: "n2", N3: "n3", N4: "n4",
	N5: "n5", N6: "n6", N7: "n7", N8: "n8", N9: "n9",
	PlusTwo:  "plus_two",
	Skip:     "skip",
	Reverse:  "reverse",
	Wild:     "wild",
	PlusFour: "plus_four",
}

func (t CardType) String() string {
	if s, ok := cardTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("invalid_type(%d)", int(t))
}

// ParseCardType maps a wire string back onto the closed CardType set.
func ParseCardType(s string) (CardType, error) {
	for t, name := range cardTypeNames {
		if s == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown card type %q", s)
}

func (t CardType) MarshalJSON() ([]byte, error) {
	if _, ok := cardTypeNames[t]; !ok {
		return nil, fmt.Errorf("cannot marshal invalid card type %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *CardType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCardType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Direction is the turn rotation order around the table.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

// Flip returns the opposite rotation.
func (d Direction) Flip() Direction {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

func (d Direction) String() string {
	if d == Clockwise {
		return "clockwise"
	}
	return "counter_clockwise"
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "clockwise":
		*d = Clockwise
	case "counter_clockwise":
		*d = CounterClockwise
	default:
		return fmt.Errorf("unknown direction %q", s)
	}
	return nil
}

// PlayResult reports the outcome of a play attempt or of applying an
// incoming event. All game-legality outcomes surface through this
// type; none of them is an error.
type PlayResult int

const (
	// InvalidCard means the card or index was not playable. For
	// HandleEvent it doubles as "unrecognized or inapplicable event".
	InvalidCard PlayResult = iota
	// CardPlayed means a legal play was applied in full.
	CardPlayed
	// Nothing means the action was a no-op.
	Nothing
	// GameOver means the play emptied the actor's hand; the turn
	// machinery has stopped.
	GameOver
)

func (r PlayResult) String() string {
	switch r {
	case InvalidCard:
		return "invalid_card"
	case CardPlayed:
		return "card_played"
	case Nothing:
		return "nothing"
	case GameOver:
		return "game_over"
	default:
		return fmt.Sprintf("invalid_result(%d)", int(r))
	}
}

// Card is one immutable playing card. It moves between the draw pile,
// a hand, and the discard pile by value; the only mutation in its
// lifetime is the color assignment a wild card receives when played.
type Card struct {
	Type  CardType `json:"type"`
	Color Color    `json:"color"`
}

// NewCard validates the type/color pairing: wild cards start without
// a color, everything else needs a concrete one.
func NewCard(t CardType, c Color) (Card, error) {
	if _, ok := cardTypeNames[t]; !ok {
		return Card{}, fmt.Errorf("invalid card type %d", int(t))
	}
	if _, ok := colorNames[c]; !ok {
		return Card{}, fmt.Errorf("invalid color %d", int(c))
	}
	if !typeIsWild(t) && !c.Concrete() {
		return Card{}, fmt.Errorf("card type %s requires a concrete color", t)
	}
	return Card{Type: t, Color: c}, nil
}

func typeIsWild(t CardType) bool {
	return t == Wild || t == PlusFour
}

// IsWild reports whether the card is a Wild or PlusFour.
func (c Card) IsWild() bool {
	return typeIsWild(c.Type)
}

// CompatibleWith is the discard-stacking legality predicate: two
// cards are compatible if they share a color, share a type, or either
// is wild.
func (c Card) CompatibleWith(other Card) bool {
	if c.IsWild() || other.IsWild() {
		return true
	}
	return c.Color == other.Color || c.Type == other.Type
}

func (c Card) String() string {
	if c.IsWild() && c.Color == ColorNone {
		return c.Type.String()
	}
	return fmt.Sprintf("%s %s", c.Color, c.Type)
}

// DisplayType is the face label without the color, e.g. "+4" or "7".
func (c Card) DisplayType() string {
	switch {
	case c.Type >= N0 && c.Type <= N9:
		return fmt.Sprintf("%d", int(c.Type))
	case c.Type == PlusTwo:
		return "+2"
	case c.Type == Skip:
		return "skip"
	case c.Type == Reverse:
		return "reverse"
	case c.Type == Wild:
		return "wild"
	case c.Type == PlusFour:
		return "+4"
	default:
		return c.Type.String()
	}
}

// FullDeck returns the standard 108-card set in a fixed order: per
// color one N0, two each of N1..N9, PlusTwo, Skip and Reverse, plus
// four Wild and four PlusFour.
func FullDeck() []Card {
	cards := make([]Card, 0, 108)
	for color := Red; color <= Blue; color++ {
		cards = append(cards, Card{Type: N0, Color: color})
		for t := N1; t <= Reverse; t++ {
			cards = append(cards, Card{Type: t, Color: color}, Card{Type: t, Color: color})
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards, Card{Type: Wild, Color: ColorNone}, Card{Type: PlusFour, Color: ColorNone})
	}
	return cards
}

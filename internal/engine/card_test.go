// internal/engine/card_test.go
package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatibleWith(t *testing.T) {
	redFive := Card{Type: N5, Color: Red}
	redSkip := Card{Type: Skip, Color: Red}
	blueFive := Card{Type: N5, Color: Blue}
	blueNine := Card{Type: N9, Color: Blue}
	wild := Card{Type: Wild, Color: ColorNone}
	plusFour := Card{Type: PlusFour, Color: ColorNone}

	assert.True(t, redFive.CompatibleWith(redSkip), "same color should match")
	assert.True(t, redFive.CompatibleWith(blueFive), "same type should match")
	assert.False(t, redFive.CompatibleWith(blueNine), "different color and type should not match")
	assert.True(t, redFive.CompatibleWith(wild), "wild matches anything")
	assert.True(t, plusFour.CompatibleWith(blueNine), "wild matches anything, either side")
}

func TestIsWild(t *testing.T) {
	assert.True(t, Card{Type: Wild, Color: ColorNone}.IsWild())
	assert.True(t, Card{Type: PlusFour, Color: ColorNone}.IsWild())
	assert.False(t, Card{Type: N0, Color: Red}.IsWild())
	assert.False(t, Card{Type: PlusTwo, Color: Green}.IsWild())
}

func TestNewCardValidation(t *testing.T) {
	_, err := NewCard(N5, ColorNone)
	assert.Error(t, err, "numbered cards need a concrete color")

	c, err := NewCard(Wild, ColorNone)
	require.NoError(t, err)
	assert.Equal(t, ColorNone, c.Color)

	_, err = NewCard(CardType(99), Red)
	assert.Error(t, err)
}

func TestFullDeckComposition(t *testing.T) {
	deck := FullDeck()
	require.Len(t, deck, 108)

	typeCounts := map[CardType]int{}
	colorCounts := map[Color]int{}
	for _, c := range deck {
		typeCounts[c.Type]++
		colorCounts[c.Color]++
	}

	assert.Equal(t, 4, typeCounts[N0], "one zero per color")
	for ty := N1; ty <= Reverse; ty++ {
		assert.Equal(t, 8, typeCounts[ty], "two %s per color", ty)
	}
	assert.Equal(t, 4, typeCounts[Wild])
	assert.Equal(t, 4, typeCounts[PlusFour])
	assert.Equal(t, 8, colorCounts[ColorNone], "wilds start colorless")
	for color := Red; color <= Blue; color++ {
		assert.Equal(t, 25, colorCounts[color])
	}
}

func TestCardJSONRoundTrip(t *testing.T) {
	in := Card{Type: PlusTwo, Color: Green}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"plus_two","color":"green"}`, string(data))

	var out Card
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCardJSONRejectsUnknownValues(t *testing.T) {
	var c Card
	assert.Error(t, json.Unmarshal([]byte(`{"type":"plus_nine","color":"red"}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"type":"n5","color":"purple"}`), &c))
}

func TestDisplayType(t *testing.T) {
	assert.Equal(t, "7", Card{Type: N7, Color: Red}.DisplayType())
	assert.Equal(t, "+2", Card{Type: PlusTwo, Color: Blue}.DisplayType())
	assert.Equal(t, "+4", Card{Type: PlusFour, Color: ColorNone}.DisplayType())
	assert.Equal(t, "skip", Card{Type: Skip, Color: Green}.DisplayType())
}

// cmd/singular/style.go
package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/singular-game/singular/internal/engine"
)

// banner renders the title screen.
func banner() string {
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("S", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("ingular", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err != nil {
		return "Singular\n"
	}
	return title
}

func colorStyle(c engine.Color) *pterm.Style {
	switch c {
	case engine.Red:
		return pterm.FgLightRed.ToStyle()
	case engine.Green:
		return pterm.FgLightGreen.ToStyle()
	case engine.Yellow:
		return pterm.FgLightYellow.ToStyle()
	case engine.Blue:
		return pterm.FgLightBlue.ToStyle()
	default:
		return pterm.FgLightMagenta.ToStyle()
	}
}

// cardLabel renders one card face in its color.
func cardLabel(c engine.Card) string {
	if c.IsWild() && !c.Color.Concrete() {
		return colorStyle(c.Color).Sprint(c.DisplayType())
	}
	return colorStyle(c.Color).Sprintf("%s %s", c.Color, c.DisplayType())
}

// printTable renders the whole table from the local player's
// perspective: opponents on top, the piles in the middle, the own hand
// at the bottom. It draws from the engine's per-viewer snapshot, so
// only the local hand ever has faces.
func printTable(c *client) {
	c.mu.Lock()
	if c.game == nil {
		c.mu.Unlock()
		return
	}
	selfID := c.selfID
	view := c.game.Snapshot(selfID)
	c.mu.Unlock()

	var opponents []pterm.Panel
	var ownPanel pterm.Panel
	pbox := pterm.DefaultBox.WithLeftPadding(2).WithRightPadding(2)
	for _, pv := range view.Players {
		turn := ""
		if pv.IsCurrentTurn && !view.Over {
			turn = pterm.LightYellow(" <- turn")
		}
		if pv.ID == selfID {
			hand := ""
			for _, cv := range pv.Hand {
				if !cv.Known {
					continue
				}
				hand += fmt.Sprintf(" %d) %s ", cv.Idx+1, cardLabel(engine.Card{Type: *cv.Type, Color: *cv.Color}))
			}
			ownPanel = pterm.Panel{Data: pbox.WithTitle(pv.Name + " (you)" + turn).WithTitleTopLeft().Sprint(hand)}
			continue
		}
		opponents = append(opponents, pterm.Panel{
			Data: pbox.WithTitle(pv.Name + turn).WithTitleTopLeft().Sprintf("%d cards", pv.HandSize),
		})
	}

	pile := fmt.Sprintf("draw pile: %d", view.DrawLen)
	if view.DiscardTop != nil {
		pile = fmt.Sprintf("top: %s | active: %s | %s | %s",
			cardLabel(*view.DiscardTop), colorStyle(view.Color).Sprint(view.Color), pile, view.Direction)
	}
	if view.DrawCount > 0 {
		pile += pterm.LightRed(fmt.Sprintf(" | +%d pending", view.DrawCount))
	}
	board := pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|TABLE|")).WithTitleTopCenter().Sprint(pile)}

	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		opponents,
		{board},
		{ownPanel},
	}).Render()
}

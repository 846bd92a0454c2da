// cmd/singular/main.go
//
// Interactive terminal client. It speaks plain HTTP to create or
// browse rooms, then joins over the room WebSocket and drives a local
// game instance: authoritative when this participant founded the room,
// a mirror otherwise.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/pterm/pterm"

	"github.com/singular-game/singular/internal/engine"
	"github.com/singular-game/singular/internal/room"
)

const subprotocol = "singular"

type roomListing struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

func main() {
	serverFlag := flag.String("server", "http://localhost:8080", "relay server base URL")
	flag.Parse()

	pterm.Print("\n")
	pterm.Print(banner())

	name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your name").Show()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "anonymous"
	}
	pterm.Println()

	base, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Server").WithDefaultValue(*serverFlag).Show()
	base = strings.TrimRight(strings.TrimSpace(base), "/")

	jar, err := cookiejar.New(nil)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	httpc := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	code, err := chooseRoom(httpc, base)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	if code == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsURL := strings.Replace(base, "http", "ws", 1) + "/rooms/" + code + "/ws"
	// The dialing client shares the session cookie jar but must not
	// carry the request timeout, which would sever the socket.
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
		HTTPClient:   &http.Client{Jar: jar},
	})
	if err != nil {
		pterm.Error.Printfln("could not reach room %s: %v", code, err)
		os.Exit(1)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c := newClient(conn, name)
	go c.readLoop(ctx)

	if err := c.send(room.NewJoin(name)); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	if !c.waitFor(func() bool { return c.joined }) {
		pterm.Error.Println("the room refused the join")
		os.Exit(1)
	}

	c.mu.Lock()
	role := c.role
	c.mu.Unlock()
	pterm.Success.Printfln("Joined room %s as %s", pterm.LightCyan(code), role)

	run(c)
	pterm.Println("Thanks for playing.")
}

// chooseRoom walks the user through creating, browsing, or entering a
// room and returns its code. An empty code means the user quit.
func chooseRoom(httpc *http.Client, base string) (string, error) {
	for {
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("What would you like to do?").
			WithOptions([]string{"Create a room", "Join by code", "Browse public rooms", "Quit"}).
			Show()
		switch choice {
		case "Create a room":
			return createRoom(httpc, base)
		case "Join by code":
			raw, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Room code").Show()
			parsed, err := room.ParseCode(raw)
			if err != nil {
				pterm.Error.Println(err.Error())
				continue
			}
			return parsed.String(), nil
		case "Browse public rooms":
			listings, err := listRooms(httpc, base)
			if err != nil {
				return "", err
			}
			if len(listings) == 0 {
				pterm.Info.Println("No public rooms right now.")
				continue
			}
			options := make([]string, 0, len(listings))
			for _, l := range listings {
				options = append(options, fmt.Sprintf("%s (%d players)", l.Code, l.Players))
			}
			picked, _ := pterm.DefaultInteractiveSelect.
				WithDefaultText("Pick a room").WithOptions(options).Show()
			return strings.SplitN(picked, " ", 2)[0], nil
		default:
			return "", nil
		}
	}
}

func createRoom(httpc *http.Client, base string) (string, error) {
	resp, err := httpc.Post(base+"/rooms", "application/json", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("room creation failed: %s", resp.Status)
	}
	var listing roomListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", err
	}
	return listing.Code, nil
}

func listRooms(httpc *http.Client, base string) ([]roomListing, error) {
	resp, err := httpc.Get(base + "/rooms")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var listings []roomListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// run is the top-level interaction loop: the lobby until a round
// starts, the turn loop while one runs, and the play-again prompt
// after it ends.
func run(c *client) {
	for {
		c.mu.Lock()
		closed, started, over := c.closed, c.started, c.game != nil && c.game.Over()
		role := c.role
		c.mu.Unlock()

		switch {
		case closed:
			pterm.Warning.Println("Disconnected from the room.")
			return
		case !started:
			if role == room.RoleHost {
				if !hostLobby(c) {
					return
				}
			} else {
				spinner, _ := pterm.DefaultSpinner.Start("Waiting for the host to start the game ...")
				alive := c.waitFor(func() bool { return c.started })
				spinner.Stop()
				if !alive {
					continue
				}
			}
		case over:
			if !afterRound(c, role) {
				return
			}
		default:
			if !playTurn(c) {
				return
			}
		}
	}
}

// hostLobby handles the host's pre-game menu. Returns false to quit.
func hostLobby(c *client) bool {
	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("You are the host").
		WithOptions([]string{"Start the game", "List room publicly", "Chat", "Quit"}).
		Show()
	switch choice {
	case "Start the game":
		if err := c.startRound(); err != nil {
			pterm.Error.Println(err.Error())
		}
	case "List room publicly":
		data, _ := json.Marshal(true)
		if err := c.send(room.Event{Type: room.EventSetPublic, Data: data}); err != nil {
			pterm.Error.Println(err.Error())
		} else {
			pterm.Success.Println("Room is now publicly listed.")
		}
	case "Chat":
		sendChat(c)
	default:
		return false
	}
	return true
}

// playTurn advances the local player through one turn: wait while it
// is someone else's, then prompt for an action. Returns false to quit.
func playTurn(c *client) bool {
	c.mu.Lock()
	g := c.game
	if g == nil {
		c.mu.Unlock()
		return true
	}
	myTurn := !g.Over() && g.CurrentPlayer() == c.selfID
	waitingOn := c.playerName(g.CurrentPlayer())
	c.mu.Unlock()

	if !myTurn {
		spinner, _ := pterm.DefaultSpinner.Start(
			pterm.Sprintf("Waiting for %s ...", pterm.LightCyan(waitingOn)))
		alive := c.waitFor(func() bool {
			return c.game == nil || c.game.Over() || !c.started ||
				c.game.CurrentPlayer() == c.selfID
		})
		spinner.Stop()
		return alive
	}

	printTable(c)
	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Your turn").
		WithOptions([]string{"Play a card", "Draw", "Pass", "Chat", "Quit"}).
		Show()
	switch choice {
	case "Play a card":
		idx, wildColor, ok := chooseCard(c)
		if !ok {
			return true
		}
		if err := c.playCard(idx, wildColor); err != nil {
			pterm.Error.Println(err.Error())
		}
	case "Draw":
		if err := c.requestDraw(); err != nil {
			pterm.Error.Println(err.Error())
		}
	case "Pass":
		if err := c.passTurn(); err != nil {
			pterm.Error.Println(err.Error())
		}
	case "Chat":
		sendChat(c)
	default:
		return false
	}
	return true
}

// chooseCard prompts for a card from the local hand, and for a color
// when the pick is wild. ok is false when the player backed out.
func chooseCard(c *client) (idx int, wildColor engine.Color, ok bool) {
	c.mu.Lock()
	var hand []engine.Card
	if c.game != nil {
		hand = append(hand, c.game.OwnHand()...)
	}
	c.mu.Unlock()
	if len(hand) == 0 {
		return 0, engine.ColorNone, false
	}

	options := make([]string, 0, len(hand)+1)
	for i, card := range hand {
		options = append(options, fmt.Sprintf("%d) %s", i+1, cardLabel(card)))
	}
	options = append(options, "Back")
	picked, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Pick a card").WithOptions(options).WithMaxHeight(10).Show()
	if picked == "Back" {
		return 0, engine.ColorNone, false
	}
	if _, err := fmt.Sscanf(picked, "%d)", &idx); err != nil {
		return 0, engine.ColorNone, false
	}
	idx--

	wildColor = engine.ColorNone
	if hand[idx].IsWild() {
		colors := []string{"red", "green", "yellow", "blue"}
		pickedColor, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("Pick a color").WithOptions(colors).Show()
		parsed, err := engine.ParseColor(pickedColor)
		if err != nil {
			return 0, engine.ColorNone, false
		}
		wildColor = parsed
	}
	return idx, wildColor, true
}

// afterRound handles the table once a round ends. Returns false to
// quit.
func afterRound(c *client, role room.Role) bool {
	if role != room.RoleHost {
		spinner, _ := pterm.DefaultSpinner.Start("Round over. Waiting for the host ...")
		alive := c.waitFor(func() bool {
			return c.game == nil || !c.game.Over()
		})
		spinner.Stop()
		return alive
	}

	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Round over").
		WithOptions([]string{"Play again", "Quit"}).
		Show()
	if choice != "Play again" {
		return false
	}
	if err := c.startRound(); err != nil {
		pterm.Error.Println(err.Error())
	}
	return true
}

func sendChat(c *client) {
	msg, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Message").Show()
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if err := c.send(room.NewChat(msg)); err != nil {
		pterm.Error.Println(err.Error())
	}
}

// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/singular-game/singular/internal/auth"
	"github.com/singular-game/singular/internal/cache"
	"github.com/singular-game/singular/internal/middleware"
	"github.com/singular-game/singular/internal/room"
)

// Subprotocol is the WebSocket subprotocol the relay speaks.
const Subprotocol = "singular"

// RoomWSHandler upgrades the connection and relays room events. The
// first client message must be player_joined; everything after that is
// routed by the room.
func (s *Server) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr
	code, err := room.ParseCode(chi.URLParam(r, "code"))
	if err != nil {
		http.Error(w, "invalid room code", http.StatusBadRequest)
		return
	}
	rm, ok := s.Rooms.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	// The session cookie must be set before the upgrade hijacks the
	// response writer.
	if _, err := auth.EnsureGuest(w, r); err != nil {
		s.Logger.Warnf("guest session failed for room %s: %v", code, err)
		http.Error(w, "could not establish session", http.StatusInternalServerError)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must speak the singular subprotocol")
		return
	}
	middleware.LogWebSocketConnect(s.Logger, remoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	conn := &room.Conn{
		Cancel:  cancel,
		OutChan: make(chan room.Event, 32),
	}

	go s.writePump(ctx, c, conn)

	// The join handshake: exactly one player_joined, carrying the
	// display name.
	joinCtx, joinCancel := context.WithTimeout(ctx, 30*time.Second)
	ev, err := readEvent(joinCtx, c)
	joinCancel()
	if err != nil {
		c.Close(websocket.StatusPolicyViolation, "expected a join message")
		return
	}
	var join room.PlayerJoinedPayload
	if ev.Type != room.EventPlayerJoined || json.Unmarshal(ev.Data, &join) != nil || join.Name == "" {
		c.Close(websocket.StatusPolicyViolation, "first message must be player_joined with a name")
		return
	}
	if err := rm.Join(conn, join.Name); err != nil {
		c.Close(RoomStartedError, "game already started")
		return
	}
	s.record(rm, conn, *ev)

	err = s.readPump(ctx, c, rm, conn)
	middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, r.URL.Path, err)
	rm.Leave(conn.ID)
}

// readPump relays inbound events into the room until the connection
// dies.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, rm *room.Room, conn *room.Conn) error {
	for {
		ev, err := readEvent(ctx, c)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if ev == nil {
			continue
		}
		s.record(rm, conn, *ev)
		rm.Handle(conn, *ev)
	}
}

// readEvent reads one text frame and decodes it. A nil event with nil
// error means a frame worth skipping.
func readEvent(ctx context.Context, c *websocket.Conn) (*room.Event, error) {
	typ, msg, err := c.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText || len(msg) == 0 {
		return nil, nil
	}
	var ev room.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		return nil, nil
	}
	return &ev, nil
}

// writePump drains the connection's outbound channel onto the socket
// and keeps the connection alive with pings.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, conn *room.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.Logger.Warnf("failed to marshal outgoing %s event: %v", ev.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.Logger.Warnf("write failed for player %d: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				s.Logger.Warnf("ping failed for player %d, assuming disconnect: %v", conn.ID, err)
				return
			}
		}
	}
}

// record forwards a relayed event to the historian queue when Redis is
// connected. Persistence is observational; failures only log.
func (s *Server) record(rm *room.Room, conn *room.Conn, ev room.Event) {
	if cache.Rdb == nil {
		return
	}
	rec := cache.RoomEventRecord{
		RoomCode:   rm.Code.String(),
		EventIndex: rm.NextSeq(),
		PlayerID:   conn.ID,
		EventType:  string(ev.Type),
		Payload:    ev.Data,
		Timestamp:  time.Now().UnixMilli(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.PublishRoomEvent(ctx, rec); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"room":  rm.Code,
			"event": ev.Type,
		}).Warnf("historian publish failed: %v", err)
	}
}

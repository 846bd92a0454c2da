// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handlers. These give
// clients a more specific reason for closure than the standard codes.
const (
	BadSubprotocolError  = 3000 // Client connected with an unsupported subprotocol.
	InvalidSessionError  = 3001 // Guest session could not be established.
	InvalidRoomCodeError = 3003 // Target room code does not exist or is malformed.
	RoomStartedError     = 3004 // Room refused the join because its game already started.
)

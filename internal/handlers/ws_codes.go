// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the draft handler.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	NameReclaimedError  = 3001 // Another connection logged in with this connection's token.
)

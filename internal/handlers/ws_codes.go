package handlers

// Custom WebSocket close codes used by the realtime handler.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Auth token missing, invalid or expired.
	UnknownPlayerError    = 3002 // Token was valid but names no known player.
)

// internal/handlers/ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/judgement/internal/connection"
	"github.com/jason-s-yu/judgement/internal/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	Subprotocol    = "judgement"
	outboundBuffer = 64
	pingInterval   = 30 * time.Second
	writeTimeout   = 5 * time.Second

	// Inbound events per connection: one every 100ms with bursts of 10.
	eventInterval = 100 * time.Millisecond
	eventBurst    = 10
)

// WSHandler upgrades an authenticated player to the realtime protocol. The
// socket carries no room; clients join rooms with events.
func (s *Server) WSHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must speak the judgement subprotocol")
		return
	}

	token := tokenFromRequest(r)
	if token == "" {
		c.Close(InvalidAuthTokenError, "missing auth token")
		return
	}
	playerID, err := s.Signer.AuthenticateJWT(token)
	if err != nil {
		c.Close(InvalidAuthTokenError, "invalid auth token")
		return
	}
	exists, err := s.Dir.PlayerExists(r.Context(), playerID)
	if err != nil || !exists {
		c.Close(UnknownPlayerError, "unknown player")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	conn := connection.NewConn(playerID, outboundBuffer, cancel)
	s.Rooms.Connect(conn)

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, conn.ID, playerID)
	go writePump(ctx, c, conn, s.Logger)
	readErr := s.readPump(ctx, c, conn)

	s.Rooms.Disconnect(conn)
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, conn.ID, playerID, readErr)
}

// readPump feeds text frames to the room manager until the socket closes.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, conn *connection.Conn) error {
	limiter := rate.NewLimiter(rate.Every(eventInterval), eventBurst)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			s.Logger.Warnf("connection %s: ignoring non-text frame", conn.ID)
			continue
		}
		s.Rooms.HandleMessage(ctx, conn, msg)
	}
}

// writePump drains the connection's queue onto the socket and keeps it alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *connection.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-conn.OutChan:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("connection %s: write failed: %v", conn.ID, err)
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("connection %s: ping failed: %v", conn.ID, err)
				conn.Cancel()
				return
			}
		}
	}
}

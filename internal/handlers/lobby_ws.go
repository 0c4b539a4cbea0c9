// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/middleware"
	"github.com/spacedog-labs/wikiracer/internal/ws"
)

// Close codes for the lobby socket.
const (
	closeUnauthorized  websocket.StatusCode = 4001
	closeUnknownLobby  websocket.StatusCode = 4004
	closeSlowConsumer  websocket.StatusCode = 4008
	wsOutChanBuffer                         = 16
	wsPingInterval                          = 30 * time.Second
)

// handleLobbyWS upgrades the connection and streams lobby snapshots published
// by the sync loop. The socket is push-only: clients act through the REST
// surface and the next snapshot reflects the result.
func (s *Server) handleLobbyWS(w http.ResponseWriter, r *http.Request) {
	lobbyKey := chi.URLParam(r, "lobbyKey")

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:       []string{"lobby"},
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.Logger.Warnf("ws: upgrade failed for lobby %s: %v", lobbyKey, err)
		return
	}

	id, err := s.Resolver.ResolveIdentity(auth.TokenFrom(r))
	if err != nil {
		c.Close(closeUnauthorized, "invalid token")
		return
	}

	if _, err := s.Lobbies.Get(r.Context(), lobbyKey); err != nil {
		c.Close(closeUnknownLobby, "unknown lobby")
		return
	}

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	sub := &ws.Subscriber{
		LobbyKey: lobbyKey,
		Subject:  id.Subject,
		OutChan:  make(chan interface{}, wsOutChanBuffer),
		Cancel:   cancel,
	}
	s.Hub.Subscribe(sub)
	defer s.Hub.Unsubscribe(sub)

	// Reads are drained only to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}()

	err = s.writePump(ctx, c, sub)
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
}

// writePump forwards snapshots from the subscriber channel and pings on an
// interval so intermediaries keep the connection open.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, sub *ws.Subscriber) error {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	defer c.Close(websocket.StatusNormalClosure, "bye")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-sub.OutChan:
			if !ok {
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, c, payload)
			cancel()
			if err != nil {
				c.Close(closeSlowConsumer, "write timeout")
				return err
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

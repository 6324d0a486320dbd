// internal/handlers/draft_ws.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/mildmongrel/thicket/internal/middleware"
	"github.com/mildmongrel/thicket/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must speak.
const Subprotocol = "thicket"

// DraftWSHandler serves the draft websocket. Every text frame is one
// {type, payload} envelope.
func DraftWSHandler(logger *logrus.Logger, srv *DraftServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the thicket subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		client := srv.Connect(cancel)
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path, client.ID.String())

		go writePump(ctx, c, client, logger)
		readPump(ctx, c, srv, client, logger)

		name := client.Name()
		reclaimed := name == "" && ctx.Err() != nil && r.Context().Err() == nil
		srv.Disconnect(client)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, client.ID.String(), name)
		if reclaimed {
			c.Close(NameReclaimedError, "name reclaimed by another connection")
		}
	}
}

// readPump decodes frames and hands them to the server until the
// connection closes.
func readPump(ctx context.Context, c *websocket.Conn, srv *DraftServer, client *Client, logger *logrus.Logger) {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("client %v closed normally", client.ID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("read error for client %v: %v (CloseStatus: %d)", client.ID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("received non-text message type %d from client %v, ignoring", typ, client.ID)
			continue
		}

		env, err := protocol.Decode(msg)
		if err != nil {
			logger.Warnf("invalid frame from client %v: %v", client.ID, err)
			client.sendError("invalid message format")
			continue
		}
		srv.Handle(client, env)
	}
}

// writePump drains the client's OutChan and pings every 30 seconds.
func writePump(ctx context.Context, c *websocket.Conn, client *Client, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-client.OutChan:
			data, err := protocol.Encode(msg)
			if err != nil {
				logger.Warnf("failed to encode outgoing msg for client %v: %v", client.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for client %v: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("failed to send ping to client %v: %v, assuming disconnect", client.ID, err)
				return
			}
		}
	}
}

package hub

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/auth"
	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/game"
	"github.com/arenalabs/chessarena/internal/matchmaking"
	"github.com/arenalabs/chessarena/internal/session"
)

// Hub owns the websocket endpoints and routes domain events back to
// connected clients.
type Hub struct {
	signer   *auth.Signer
	sessions *session.Manager
	mm       *matchmaking.Service
	upgrader websocket.Upgrader

	mmConns    *connRegistry // userID → matchmaking socket
	gameConns  *connRegistry // playerID → game socket
	spectators *spectatorRegistry

	// Player ids whose game socket dropped, so a re-register is a
	// reconnection rather than a first connect.
	dmu          sync.Mutex
	disconnected map[string]bool
}

// New creates a hub. allowedOrigins restricts the websocket handshake;
// empty allows every origin.
func New(signer *auth.Signer, sessions *session.Manager, mm *matchmaking.Service, allowedOrigins []string) *Hub {
	h := &Hub{
		signer:       signer,
		sessions:     sessions,
		mm:           mm,
		mmConns:      newConnRegistry(),
		gameConns:    newConnRegistry(),
		spectators:   newSpectatorRegistry(),
		disconnected: make(map[string]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return set[strings.ToLower(origin)]
	}
}

// authenticate upgrades the connection and verifies the bearer token
// from the "token" query parameter. An invalid token closes the socket
// with a policy violation.
func (h *Hub) authenticate(w http.ResponseWriter, r *http.Request) (*Client, string, bool) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logw.Warningf(r.Context(), "hub: upgrade failed: %v", err)
		return nil, "", false
	}
	c := newClient(conn)

	userID, err := h.signer.Verify(r.URL.Query().Get("token"))
	if err != nil {
		c.Close(websocket.ClosePolicyViolation, "authentication failed")
		return nil, "", false
	}

	c.Send(encode(authSuccessMsg{Type: msgAuthSuccess, UserID: userID}))
	return c, userID, true
}

// HandleMatchmaking serves the matchmaking socket. The client sends
// JOIN_QUEUE and LEAVE_QUEUE; the server pushes queue positions and the
// MATCH_FOUND frame. Dropping the socket removes the user from the
// queue.
func (h *Hub) HandleMatchmaking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if prev := h.mmConns.Register(userID, c); prev != nil {
		prev.Close(websocket.ClosePolicyViolation, "superseded by a newer connection")
	}
	h.sendQueueStatus(ctx, c, userID)
	defer func() {
		if h.mmConns.Unregister(userID, c) {
			h.mm.Leave(ctx, userID)
		}
		c.Close(websocket.CloseNormalClosure, "")
	}()

	for {
		data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := decodeClient(data, &msg); err != nil {
			c.Send(encode(moveRejectedMsg{Type: msgMoveRejected, Reason: "malformed message"}))
			continue
		}

		switch msg.Type {
		case msgJoinQueue:
			res, err := h.mm.Join(ctx, userID)
			if err != nil {
				c.Send(encode(moveRejectedMsg{Type: msgMoveRejected, Reason: err.Error()}))
				continue
			}
			if res.Status == matchmaking.StatusWaiting {
				c.Send(encode(queuePositionMsg{Type: msgQueuePositionUpdate, Position: res.QueuePosition}))
			}
			// MATCHED is announced through MatchFound for both sides.

		case msgLeaveQueue:
			h.mm.Leave(ctx, userID)

		default:
			c.Send(encode(moveRejectedMsg{Type: msgMoveRejected, Reason: "unsupported message type"}))
		}
	}
}

// sendQueueStatus pushes where the user currently stands, right after
// the matchmaking handshake: a queue position, or the match that is
// already waiting for them.
func (h *Hub) sendQueueStatus(ctx context.Context, c *Client, userID string) {
	res, err := h.mm.Status(ctx, userID)
	if err != nil {
		logw.Warningf(ctx, "hub: queue status for %s: %v", userID, err)
		return
	}
	switch res.Status {
	case matchmaking.StatusMatched:
		c.Send(encode(matchFoundMsg{
			Type:      msgMatchFound,
			GameID:    res.GameID,
			YourColor: game.SideName(res.Color),
		}))
	default:
		// Position 0 means not queued.
		c.Send(encode(queuePositionMsg{Type: msgQueuePositionUpdate, Position: res.QueuePosition}))
	}
}

// HandleGame serves the in-game socket for a participant at
// /ws/game/{gameId}.
func (h *Hub) HandleGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	gameID := r.PathValue("gameId")
	g, err := h.sessions.Game(ctx, gameID)
	if err != nil {
		c.Close(websocket.ClosePolicyViolation, "unknown game")
		return
	}
	player, isPlayer := g.PlayerByUserID(userID)
	if !isPlayer {
		c.Close(websocket.ClosePolicyViolation, "not a participant")
		return
	}

	if prev := h.gameConns.Register(player.ID, c); prev != nil {
		prev.Close(websocket.ClosePolicyViolation, "superseded by a newer connection")
	}
	if h.markConnected(player.ID) {
		h.sessions.NotifyReconnected(ctx, gameID, player.ID)
	}

	// The match record has served its purpose once both seats are
	// filled; releasing it lets the users queue again later.
	opponent := g.White
	if player.ID == g.White.ID {
		opponent = g.Black
	}
	if _, connected := h.gameConns.Get(opponent.ID); connected && h.mm != nil {
		h.mm.CompleteMatch(ctx, gameID)
	}

	c.Send(gameStateSync(g, game.SideName(player.Side)))

	defer func() {
		if h.gameConns.Unregister(player.ID, c) {
			h.markDisconnected(player.ID)
			h.sessions.NotifyDisconnected(ctx, gameID, player.ID)
		}
		c.Close(websocket.CloseNormalClosure, "")
	}()

	for {
		data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := decodeClient(data, &msg); err != nil {
			c.Send(encode(moveRejectedMsg{Type: msgMoveRejected, GameID: gameID, Reason: "malformed message"}))
			continue
		}
		if err := h.handleGameCommand(ctx, gameID, player.ID, msg); err != nil {
			c.Send(encode(moveRejectedMsg{Type: msgMoveRejected, GameID: gameID, Reason: err.Error()}))
		}
	}
}

// handleGameCommand applies one in-game client command. Successful
// commands answer through the event dispatcher, not here.
func (h *Hub) handleGameCommand(ctx context.Context, gameID, playerID string, msg clientMessage) error {
	switch msg.Type {
	case msgMoveAttempt:
		g, err := h.sessions.Game(ctx, gameID)
		if err != nil {
			return err
		}
		mv, err := chess.ParseMove(msg.UCI(), g.Position)
		if err != nil {
			return err
		}
		_, err = h.sessions.MakeMove(ctx, gameID, playerID, mv)
		return err

	case msgOfferDraw:
		return h.sessions.OfferDraw(ctx, gameID, playerID)
	case msgAcceptDraw:
		return h.sessions.AcceptDraw(ctx, gameID, playerID)
	case msgRejectDraw:
		return h.sessions.RejectDraw(ctx, gameID, playerID)
	case msgResign:
		return h.sessions.Resign(ctx, gameID, playerID)
	default:
		return errUnsupportedMessage
	}
}

// HandleSpectate serves a read-only socket for a finished or ongoing
// game at /ws/spectate/{gameId}. Any authenticated user may watch.
func (h *Hub) HandleSpectate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	gameID := r.PathValue("gameId")
	g, err := h.sessions.Game(ctx, gameID)
	if err != nil {
		c.Close(websocket.ClosePolicyViolation, "unknown game")
		return
	}

	if prev := h.spectators.Register(gameID, userID, c); prev != nil {
		prev.Close(websocket.ClosePolicyViolation, "superseded by a newer connection")
	}
	c.Send(gameStateSync(g, ""))

	defer func() {
		h.spectators.Unregister(gameID, userID, c)
		c.Close(websocket.CloseNormalClosure, "")
	}()

	// Spectators only listen; drain until the peer goes away.
	for {
		if _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// markDisconnected records a dropped player socket.
func (h *Hub) markDisconnected(playerID string) {
	h.dmu.Lock()
	h.disconnected[playerID] = true
	h.dmu.Unlock()
}

// markConnected clears a player's disconnected flag and reports whether
// this connect is a reconnection.
func (h *Hub) markConnected(playerID string) bool {
	h.dmu.Lock()
	defer h.dmu.Unlock()
	was := h.disconnected[playerID]
	delete(h.disconnected, playerID)
	return was
}

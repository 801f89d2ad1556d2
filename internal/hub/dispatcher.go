package hub

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/game"
)

// terminalCloseDelay leaves room for the final event to reach clients
// before their sockets are closed.
const terminalCloseDelay = time.Second

// GameEvent translates a domain event into wire messages and delivers
// them best-effort. Implements session.EventSink; runs on the room
// goroutine, so g may be read but not retained.
func (h *Hub) GameEvent(ctx context.Context, g *game.Game, ev game.Event) {
	switch e := ev.(type) {
	case game.MoveExecuted:
		msg := encode(moveExecutedMsg{
			Type:       msgMoveExecuted,
			GameID:     e.GameID,
			Move:       e.Move.String(),
			MoveNumber: e.MoveNumber,
			FEN:        e.FEN,
			Status:     string(e.Status),
			SideToMove: game.SideName(e.SideToMove),
			IsCheck:    e.IsCheck,
		})
		h.sendToPlayers(ctx, g, msg)
		h.sendToSpectators(ctx, e.GameID, msg)
		if e.Status.Terminal() {
			h.scheduleTerminalClose(g)
		}

	case game.MoveRejected:
		h.sendToPlayer(ctx, e.PlayerID, encode(moveRejectedMsg{
			Type:   msgMoveRejected,
			GameID: e.GameID,
			Reason: e.Reason,
		}))

	case game.DrawOffered:
		h.sendToPlayers(ctx, g, encode(drawMsg{
			Type:   msgDrawOffered,
			GameID: e.GameID,
			By:     game.SideName(e.By),
		}))

	case game.DrawAccepted:
		h.sendToPlayers(ctx, g, encode(drawMsg{
			Type:   msgDrawAccepted,
			GameID: e.GameID,
			By:     game.SideName(e.By),
			Status: string(e.Status),
		}))
		h.scheduleTerminalClose(g)

	case game.DrawRejected:
		h.sendToPlayers(ctx, g, encode(drawMsg{
			Type:   msgDrawRejected,
			GameID: e.GameID,
			By:     game.SideName(e.By),
		}))

	case game.GameResigned:
		h.sendToPlayers(ctx, g, encode(gameResignedMsg{
			Type:   msgGameResigned,
			GameID: e.GameID,
			By:     game.SideName(e.By),
			Status: string(e.Status),
		}))
		h.scheduleTerminalClose(g)

	case game.PlayerDisconnected:
		h.sendPresence(ctx, g, msgPlayerDisconnected, e.PlayerID)

	case game.PlayerReconnected:
		h.sendPresence(ctx, g, msgPlayerReconnected, e.PlayerID)
	}
}

// MatchFound pushes the pairing result to a user's matchmaking socket.
// Implements matchmaking.Notifier.
func (h *Hub) MatchFound(ctx context.Context, userID, gameID string, color chess.Color) {
	c, ok := h.mmConns.Get(userID)
	if !ok {
		return
	}
	msg := encode(matchFoundMsg{
		Type:      msgMatchFound,
		GameID:    gameID,
		YourColor: game.SideName(color),
	})
	if !c.Send(msg) {
		logw.Warningf(ctx, "hub: dropping dead matchmaking socket for %s", userID)
		h.mmConns.Unregister(userID, c)
	}
}

// sendToPlayers delivers a frame to both participants.
func (h *Hub) sendToPlayers(ctx context.Context, g *game.Game, msg []byte) {
	h.sendToPlayer(ctx, g.White.ID, msg)
	h.sendToPlayer(ctx, g.Black.ID, msg)
}

// sendToPlayer delivers one frame; a failed send unregisters the stale
// connection. A dead connection never blocks the game.
func (h *Hub) sendToPlayer(ctx context.Context, playerID string, msg []byte) {
	c, ok := h.gameConns.Get(playerID)
	if !ok {
		return
	}
	if !c.Send(msg) {
		logw.Warningf(ctx, "hub: dropping dead game socket for player %s", playerID)
		h.gameConns.Unregister(playerID, c)
	}
}

// sendToSpectators broadcasts a frame to everyone watching the game.
func (h *Hub) sendToSpectators(ctx context.Context, gameID string, msg []byte) {
	type stale struct {
		userID string
		c      *Client
	}
	var dead []stale
	h.spectators.ForEach(gameID, func(userID string, c *Client) {
		if !c.Send(msg) {
			dead = append(dead, stale{userID, c})
		}
	})
	for _, s := range dead {
		logw.Warningf(ctx, "hub: dropping dead spectator socket for %s", s.userID)
		h.spectators.Unregister(gameID, s.userID, s.c)
	}
}

// sendPresence notifies the opponent and the spectators about a
// player's connection state.
func (h *Hub) sendPresence(ctx context.Context, g *game.Game, msgType, playerID string) {
	msg := encode(playerPresenceMsg{
		Type:     msgType,
		GameID:   g.ID,
		PlayerID: playerID,
	})

	opponent := g.White.ID
	if playerID == g.White.ID {
		opponent = g.Black.ID
	}
	h.sendToPlayer(ctx, opponent, msg)
	h.sendToSpectators(ctx, g.ID, msg)
}

// scheduleTerminalClose closes both player sockets and every spectator
// shortly after the game reaches a terminal status.
func (h *Hub) scheduleTerminalClose(g *game.Game) {
	whiteID, blackID, gameID := g.White.ID, g.Black.ID, g.ID

	time.AfterFunc(terminalCloseDelay, func() {
		if c, ok := h.gameConns.Get(whiteID); ok {
			c.Close(websocket.CloseNormalClosure, "game over")
			h.gameConns.Unregister(whiteID, c)
		}
		if c, ok := h.gameConns.Get(blackID); ok {
			c.Close(websocket.CloseNormalClosure, "game over")
			h.gameConns.Unregister(blackID, c)
		}

		type watcher struct {
			userID string
			c      *Client
		}
		var watchers []watcher
		h.spectators.ForEach(gameID, func(userID string, c *Client) {
			watchers = append(watchers, watcher{userID, c})
		})
		for _, w := range watchers {
			w.c.Close(websocket.CloseNormalClosure, "game over")
			h.spectators.Unregister(gameID, w.userID, w.c)
		}
	})
}

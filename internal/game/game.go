// Package game holds the game aggregate: two players, the current
// position, the move history and the draw-offer / resignation state
// machine. The aggregate is not safe for concurrent use; all mutations
// of one game are funneled through its session room.
package game

import (
	"time"

	"github.com/arenalabs/chessarena/internal/chess"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCheckmate  Status = "CHECKMATE"
	StatusStalemate  Status = "STALEMATE"
	StatusDraw       Status = "DRAW"
	StatusResigned   Status = "RESIGNED"
)

// Terminal reports whether no further moves can be appended.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// Player is one participation in a game. A user playing two games has
// two distinct player ids.
type Player struct {
	ID     string      `json:"id"`
	UserID string      `json:"userId"`
	Side   chess.Color `json:"side"`
}

// MoveRecord is one entry of the move history.
type MoveRecord struct {
	Number    int       `json:"number"` // 1-based ordinal
	Notation  string    `json:"notation"`
	CreatedAt time.Time `json:"createdAt"`
}

// Game is the aggregate root.
type Game struct {
	ID    string
	White Player
	Black Player

	Position *chess.Position
	History  []MoveRecord
	Status   Status

	// DrawOfferedBy is the side with a pending draw offer, nil if none.
	DrawOfferedBy *chess.Color

	// Winner is set for CHECKMATE and RESIGNED games.
	Winner *chess.Color

	// Bot games play Black with the built-in engine.
	VsBot      bool
	Difficulty string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an in-progress game between the two players from the
// starting position. The white player must carry side White and the
// black player side Black.
func New(id string, white, black Player, now time.Time) *Game {
	white.Side = chess.White
	black.Side = chess.Black
	return &Game{
		ID:        id,
		White:     white,
		Black:     black,
		Position:  chess.NewPosition(),
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentSide returns the side to move.
func (g *Game) CurrentSide() chess.Color {
	return g.Position.SideToMove
}

// PlayerByID returns the participant with the given player id.
func (g *Game) PlayerByID(playerID string) (Player, bool) {
	switch playerID {
	case g.White.ID:
		return g.White, true
	case g.Black.ID:
		return g.Black, true
	}
	return Player{}, false
}

// PlayerByUserID returns the participant owned by the given user.
func (g *Game) PlayerByUserID(userID string) (Player, bool) {
	switch userID {
	case g.White.UserID:
		return g.White, true
	case g.Black.UserID:
		return g.Black, true
	}
	return Player{}, false
}

// PlayerBySide returns the participant playing the given side.
func (g *Game) PlayerBySide(side chess.Color) Player {
	if side == chess.White {
		return g.White
	}
	return g.Black
}

// IsPlayerTurn reports whether the participant is the side to move.
func (g *Game) IsPlayerTurn(p Player) bool {
	return p.Side == g.Position.SideToMove
}

// MakeMove validates and applies a move by the given participant,
// appends it to the history and recomputes the status. Returns the
// MoveExecuted event describing the transition.
func (g *Game) MakeMove(playerID string, m chess.Move, now time.Time) (MoveExecuted, error) {
	if g.Status.Terminal() {
		return MoveExecuted{}, ErrGameTerminal
	}
	player, ok := g.PlayerByID(playerID)
	if !ok {
		return MoveExecuted{}, ErrNotAParticipant
	}
	if !g.IsPlayerTurn(player) {
		return MoveExecuted{}, ErrNotYourTurn
	}
	if !g.Position.IsMoveLegal(m) {
		return MoveExecuted{}, ErrIllegalMove
	}

	g.Position = g.Position.Apply(m)
	g.History = append(g.History, MoveRecord{
		Number:    len(g.History) + 1,
		Notation:  m.String(),
		CreatedAt: now,
	})

	// A move supersedes any pending draw offer.
	g.DrawOfferedBy = nil

	g.recomputeStatus(player.Side)
	g.UpdatedAt = now

	return MoveExecuted{
		GameID:     g.ID,
		PlayerID:   player.ID,
		Move:       m,
		MoveNumber: len(g.History),
		FEN:        g.Position.ToFEN(),
		Status:     g.Status,
		SideToMove: g.Position.SideToMove,
		IsCheck:    g.Position.InCheck(),
	}, nil
}

// recomputeStatus re-evaluates the status after a completed move by
// mover. Checkmate wins over stalemate, which wins over the two draw
// rules.
func (g *Game) recomputeStatus(mover chess.Color) {
	switch {
	case g.Position.IsCheckmate():
		g.Status = StatusCheckmate
		winner := mover
		g.Winner = &winner
	case g.Position.IsStalemate():
		g.Status = StatusStalemate
	case g.Position.IsFiftyMoveRule():
		g.Status = StatusDraw
	case g.Position.IsInsufficientMaterial():
		g.Status = StatusDraw
	default:
		g.Status = StatusInProgress
	}
}

// OfferDraw registers a draw offer by the given participant.
func (g *Game) OfferDraw(playerID string) (DrawOffered, error) {
	if g.Status.Terminal() {
		return DrawOffered{}, ErrGameTerminal
	}
	player, ok := g.PlayerByID(playerID)
	if !ok {
		return DrawOffered{}, ErrNotAParticipant
	}
	if g.DrawOfferedBy != nil {
		return DrawOffered{}, ErrDrawPending
	}

	side := player.Side
	g.DrawOfferedBy = &side

	return DrawOffered{GameID: g.ID, By: side}, nil
}

// AcceptDraw ends the game in a draw. Only the opponent of the offering
// side may accept.
func (g *Game) AcceptDraw(playerID string) (DrawAccepted, error) {
	player, ok := g.PlayerByID(playerID)
	if !ok {
		return DrawAccepted{}, ErrNotAParticipant
	}
	if g.DrawOfferedBy == nil {
		return DrawAccepted{}, ErrNoDrawOffer
	}
	if *g.DrawOfferedBy == player.Side {
		return DrawAccepted{}, ErrOwnDrawOffer
	}

	offeredBy := *g.DrawOfferedBy
	g.DrawOfferedBy = nil
	g.Status = StatusDraw

	return DrawAccepted{GameID: g.ID, By: player.Side, OfferedBy: offeredBy, Status: g.Status}, nil
}

// RejectDraw clears a pending draw offer; the game continues.
func (g *Game) RejectDraw(playerID string) (DrawRejected, error) {
	player, ok := g.PlayerByID(playerID)
	if !ok {
		return DrawRejected{}, ErrNotAParticipant
	}
	if g.DrawOfferedBy == nil {
		return DrawRejected{}, ErrNoDrawOffer
	}
	if *g.DrawOfferedBy == player.Side {
		return DrawRejected{}, ErrOwnDrawOffer
	}

	offeredBy := *g.DrawOfferedBy
	g.DrawOfferedBy = nil

	return DrawRejected{GameID: g.ID, By: player.Side, OfferedBy: offeredBy}, nil
}

// Resign ends the game with the opponent as winner.
func (g *Game) Resign(playerID string) (GameResigned, error) {
	if g.Status.Terminal() {
		return GameResigned{}, ErrGameTerminal
	}
	player, ok := g.PlayerByID(playerID)
	if !ok {
		return GameResigned{}, ErrNotAParticipant
	}

	winner := player.Side.Other()
	g.Status = StatusResigned
	g.Winner = &winner
	g.DrawOfferedBy = nil

	return GameResigned{GameID: g.ID, By: player.Side, Status: g.Status}, nil
}

package game

import "github.com/arenalabs/chessarena/internal/chess"

// Event is the closed set of domain events a game emits. The dispatcher
// translates them into wire messages.
type Event interface {
	isEvent()
}

// MoveExecuted is emitted after every successful move.
type MoveExecuted struct {
	GameID     string
	PlayerID   string
	Move       chess.Move
	MoveNumber int
	FEN        string
	Status     Status
	SideToMove chess.Color
	IsCheck    bool
}

// MoveRejected is emitted to the offending player only.
type MoveRejected struct {
	GameID   string
	PlayerID string
	Reason   string
}

// DrawOffered is emitted when a participant offers a draw.
type DrawOffered struct {
	GameID string
	By     chess.Color
}

// DrawAccepted is emitted when the opponent accepts a pending offer.
type DrawAccepted struct {
	GameID    string
	By        chess.Color
	OfferedBy chess.Color
	Status    Status
}

// DrawRejected is emitted when the opponent declines a pending offer.
type DrawRejected struct {
	GameID    string
	By        chess.Color
	OfferedBy chess.Color
}

// GameResigned is emitted when a participant resigns.
type GameResigned struct {
	GameID string
	By     chess.Color
	Status Status
}

// PlayerDisconnected is emitted when a player's game socket drops.
type PlayerDisconnected struct {
	GameID   string
	PlayerID string
}

// PlayerReconnected is emitted when a player's game socket returns.
type PlayerReconnected struct {
	GameID   string
	PlayerID string
}

func (MoveExecuted) isEvent()       {}
func (MoveRejected) isEvent()       {}
func (DrawOffered) isEvent()        {}
func (DrawAccepted) isEvent()       {}
func (DrawRejected) isEvent()       {}
func (GameResigned) isEvent()       {}
func (PlayerDisconnected) isEvent() {}
func (PlayerReconnected) isEvent()  {}

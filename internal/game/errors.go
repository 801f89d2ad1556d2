package game

import "errors"

// Expected failure modes of the aggregate's operations. Adapters map
// these to HTTP statuses or MoveRejected wire messages.
var (
	ErrNotAParticipant = errors.New("not a participant")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrGameTerminal    = errors.New("game is over")
	ErrIllegalMove     = errors.New("illegal move")
	ErrDrawPending     = errors.New("draw already offered")
	ErrNoDrawOffer     = errors.New("no pending draw offer")
	ErrOwnDrawOffer    = errors.New("cannot answer own draw offer")
)

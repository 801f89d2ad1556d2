package hub

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/arenalabs/chessarena/internal/game"
)

var errUnsupportedMessage = errors.New("unsupported message type")

// Server-to-client message discriminators.
const (
	msgAuthSuccess         = "AUTH_SUCCESS"
	msgGameStateSync       = "GAME_STATE_SYNC"
	msgQueuePositionUpdate = "QUEUE_POSITION_UPDATE"
	msgMatchFound          = "MATCH_FOUND"
	msgMoveExecuted        = "MOVE_EXECUTED"
	msgMoveRejected        = "MOVE_REJECTED"
	msgDrawOffered         = "DRAW_OFFERED"
	msgDrawAccepted        = "DRAW_ACCEPTED"
	msgDrawRejected        = "DRAW_REJECTED"
	msgGameResigned        = "GAME_RESIGNED"
	msgPlayerDisconnected  = "PLAYER_DISCONNECTED"
	msgPlayerReconnected   = "PLAYER_RECONNECTED"
)

// Client-to-server message discriminators.
const (
	msgJoinQueue   = "JOIN_QUEUE"
	msgLeaveQueue  = "LEAVE_QUEUE"
	msgMoveAttempt = "MOVE_ATTEMPT"
	msgOfferDraw   = "OFFER_DRAW"
	msgAcceptDraw  = "ACCEPT_DRAW"
	msgRejectDraw  = "REJECT_DRAW"
	msgResign      = "RESIGN"
)

// clientMessage is the single inbound envelope; unused fields stay empty.
type clientMessage struct {
	Type      string `json:"type"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI renders a move attempt in coordinate notation. Promotion accepts
// a piece letter ("q") or a piece name ("QUEEN").
func (m clientMessage) UCI() string {
	promo := strings.ToLower(strings.TrimSpace(m.Promotion))
	switch promo {
	case "queen":
		promo = "q"
	case "rook":
		promo = "r"
	case "bishop":
		promo = "b"
	case "knight":
		promo = "n"
	}
	return strings.ToLower(m.From) + strings.ToLower(m.To) + promo
}

// decodeClient parses one inbound frame.
func decodeClient(data []byte, msg *clientMessage) error {
	if err := json.Unmarshal(data, msg); err != nil {
		return err
	}
	if msg.Type == "" {
		return errors.New("missing message type")
	}
	return nil
}

type authSuccessMsg struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type gameStateSyncMsg struct {
	Type       string `json:"type"`
	GameID     string `json:"gameId"`
	FEN        string `json:"fen"`
	Status     string `json:"status"`
	SideToMove string `json:"sideToMove"`
	YourColor  string `json:"yourColor,omitempty"`
	MoveCount  int    `json:"moveCount"`
}

type queuePositionMsg struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
}

type matchFoundMsg struct {
	Type      string `json:"type"`
	GameID    string `json:"gameId"`
	YourColor string `json:"yourColor"`
}

type moveExecutedMsg struct {
	Type       string `json:"type"`
	GameID     string `json:"gameId"`
	Move       string `json:"move"`
	MoveNumber int    `json:"moveNumber"`
	FEN        string `json:"fen"`
	Status     string `json:"status"`
	SideToMove string `json:"sideToMove"`
	IsCheck    bool   `json:"isCheck"`
}

type moveRejectedMsg struct {
	Type   string `json:"type"`
	GameID string `json:"gameId,omitempty"`
	Reason string `json:"reason"`
}

type drawMsg struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
	By     string `json:"by"`
	Status string `json:"status,omitempty"`
}

type gameResignedMsg struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
	By     string `json:"by"`
	Status string `json:"status"`
}

type playerPresenceMsg struct {
	Type     string `json:"type"`
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// encode marshals a wire message; the variants above cannot fail.
func encode(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}

// gameStateSync builds the sync frame sent right after a successful
// game or spectate handshake.
func gameStateSync(g *game.Game, yourColor string) []byte {
	return encode(gameStateSyncMsg{
		Type:       msgGameStateSync,
		GameID:     g.ID,
		FEN:        g.Position.ToFEN(),
		Status:     string(g.Status),
		SideToMove: game.SideName(g.CurrentSide()),
		YourColor:  yourColor,
		MoveCount:  len(g.History),
	})
}

package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalabs/chessarena/internal/chess"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	white := Player{ID: "p-white", UserID: "u-alice"}
	black := Player{ID: "p-black", UserID: "u-bob"}
	return New("g-1", white, black, now)
}

func play(t *testing.T, g *Game, moves ...string) MoveExecuted {
	t.Helper()
	var last MoveExecuted
	for _, s := range moves {
		m, err := chess.ParseMove(s, g.Position)
		require.NoError(t, err)
		player := g.PlayerBySide(g.CurrentSide())
		last, err = g.MakeMove(player.ID, m, now)
		require.NoError(t, err, "move %s", s)
	}
	return last
}

func TestNewGame(t *testing.T) {
	g := newTestGame(t)

	assert.Equal(t, StatusInProgress, g.Status)
	assert.Equal(t, chess.White, g.White.Side)
	assert.Equal(t, chess.Black, g.Black.Side)
	assert.Equal(t, chess.White, g.CurrentSide())
	assert.Equal(t, chess.StartFEN, g.Position.ToFEN())
	assert.Empty(t, g.History)
}

func TestMakeMoveTurnEnforcement(t *testing.T) {
	g := newTestGame(t)
	m, err := chess.ParseMove("e2e4", g.Position)
	require.NoError(t, err)

	_, err = g.MakeMove("p-black", m, now)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.MakeMove("p-stranger", m, now)
	assert.ErrorIs(t, err, ErrNotAParticipant)

	event, err := g.MakeMove("p-white", m, now)
	require.NoError(t, err)
	assert.Equal(t, chess.Black, event.SideToMove)
	assert.Equal(t, 1, event.MoveNumber)
	assert.Equal(t, StatusInProgress, event.Status)
}

func TestMakeMoveRejectsIllegalMove(t *testing.T) {
	g := newTestGame(t)
	_, err := g.MakeMove("p-white", chess.NewMove(chess.E2, chess.E5), now)
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Empty(t, g.History, "rejected move leaves no trace")
}

func TestScholarsMateEndsGame(t *testing.T) {
	g := newTestGame(t)
	event := play(t, g, "e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6", "h5f7")

	assert.Equal(t, StatusCheckmate, event.Status)
	assert.True(t, event.IsCheck)
	require.NotNil(t, g.Winner)
	assert.Equal(t, chess.White, *g.Winner)
	assert.Len(t, g.History, 7)

	// Terminal game refuses further moves.
	m, err := chess.ParseMove("a7a6", g.Position)
	require.NoError(t, err)
	_, err = g.MakeMove("p-black", m, now)
	assert.ErrorIs(t, err, ErrGameTerminal)
}

func TestStalemateEndsGame(t *testing.T) {
	g := newTestGame(t)
	pos, err := chess.ParseFEN("7k/8/5K2/5Q2/8/8/8/8 w - - 0 1")
	require.NoError(t, err)
	g.Position = pos

	m, err := chess.ParseMove("f5g6", g.Position)
	require.NoError(t, err)
	event, err := g.MakeMove("p-white", m, now)
	require.NoError(t, err)

	assert.Equal(t, StatusStalemate, event.Status)
	assert.False(t, event.IsCheck)
	assert.Nil(t, g.Winner)
}

func TestInsufficientMaterialDraw(t *testing.T) {
	g := newTestGame(t)
	pos, err := chess.ParseFEN("4k3/8/8/8/8/3n4/4K3/8 w - - 0 1")
	require.NoError(t, err)
	g.Position = pos

	m, err := chess.ParseMove("e2d3", g.Position)
	require.NoError(t, err)
	event, err := g.MakeMove("p-white", m, now)
	require.NoError(t, err)

	assert.Equal(t, StatusDraw, event.Status)
}

func TestFiftyMoveDraw(t *testing.T) {
	g := newTestGame(t)
	pos, err := chess.ParseFEN("4k3/8/8/8/8/8/8/4K2R w - - 99 80")
	require.NoError(t, err)
	g.Position = pos

	m, err := chess.ParseMove("h1h2", g.Position)
	require.NoError(t, err)
	event, err := g.MakeMove("p-white", m, now)
	require.NoError(t, err)

	assert.Equal(t, StatusDraw, event.Status)
}

func TestDrawOfferAccepted(t *testing.T) {
	g := newTestGame(t)
	play(t, g, "e2e4", "e7e5")

	offered, err := g.OfferDraw("p-white")
	require.NoError(t, err)
	assert.Equal(t, chess.White, offered.By)

	// Offerer cannot answer their own offer.
	_, err = g.AcceptDraw("p-white")
	assert.ErrorIs(t, err, ErrOwnDrawOffer)

	// No second offer while one is pending.
	_, err = g.OfferDraw("p-black")
	assert.ErrorIs(t, err, ErrDrawPending)

	accepted, err := g.AcceptDraw("p-black")
	require.NoError(t, err)
	assert.Equal(t, StatusDraw, accepted.Status)
	assert.Equal(t, chess.Black, accepted.By)
	assert.Equal(t, chess.White, accepted.OfferedBy)
	assert.True(t, g.Status.Terminal())
	assert.Nil(t, g.DrawOfferedBy)
}

func TestDrawOfferRejectedGameContinues(t *testing.T) {
	g := newTestGame(t)
	play(t, g, "e2e4", "e7e5")

	_, err := g.OfferDraw("p-black")
	require.NoError(t, err)

	rejected, err := g.RejectDraw("p-white")
	require.NoError(t, err)
	assert.Equal(t, chess.White, rejected.By)
	assert.Equal(t, chess.Black, rejected.OfferedBy)
	assert.Nil(t, g.DrawOfferedBy)
	assert.Equal(t, StatusInProgress, g.Status)

	event := play(t, g, "d2d4")
	assert.Equal(t, StatusInProgress, event.Status)
}

func TestDrawOfferPreconditions(t *testing.T) {
	g := newTestGame(t)

	_, err := g.AcceptDraw("p-white")
	assert.ErrorIs(t, err, ErrNoDrawOffer)

	_, err = g.RejectDraw("p-black")
	assert.ErrorIs(t, err, ErrNoDrawOffer)

	_, err = g.OfferDraw("p-stranger")
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestMoveClearsPendingDrawOffer(t *testing.T) {
	g := newTestGame(t)
	play(t, g, "e2e4", "e7e5")

	_, err := g.OfferDraw("p-white")
	require.NoError(t, err)
	require.NotNil(t, g.DrawOfferedBy)

	play(t, g, "g1f3")
	assert.Nil(t, g.DrawOfferedBy, "moving supersedes the offer")
}

func TestResign(t *testing.T) {
	g := newTestGame(t)
	play(t, g, "e2e4", "e7e5")

	event, err := g.Resign("p-white")
	require.NoError(t, err)
	assert.Equal(t, StatusResigned, event.Status)
	assert.Equal(t, chess.White, event.By)
	require.NotNil(t, g.Winner)
	assert.Equal(t, chess.Black, *g.Winner)

	_, err = g.Resign("p-black")
	assert.ErrorIs(t, err, ErrGameTerminal)
}

func TestHistoryTracksSuccessfulMovesOnly(t *testing.T) {
	g := newTestGame(t)
	play(t, g, "e2e4", "e7e5", "g1f3")

	// A failed attempt does not grow the history.
	m, err := chess.ParseMove("d7d6", g.Position)
	require.NoError(t, err)
	_, err = g.MakeMove("p-white", m, now)
	require.Error(t, err)

	require.Len(t, g.History, 3)
	for i, rec := range g.History {
		assert.Equal(t, i+1, rec.Number)
	}
}

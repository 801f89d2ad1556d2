package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalabs/chessarena/internal/chess"
)

func position(t *testing.T, fen string) *chess.Position {
	t.Helper()
	pos, err := chess.ParseFEN(fen)
	require.NoError(t, err)
	return pos
}

func TestBestMoveStartingPosition(t *testing.T) {
	eng := New(16)

	result, err := eng.BestMove(context.Background(), chess.NewPosition(), Beginner)
	require.NoError(t, err)

	assert.NotEqual(t, chess.NoMove, result.Move)
	assert.Equal(t, 2, result.Depth)
	assert.Greater(t, result.Nodes, uint64(0))
}

func TestBestMoveReturnsLegalMove(t *testing.T) {
	fens := []string{
		chess.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}

	eng := New(16)
	for _, fen := range fens {
		pos := position(t, fen)
		result, err := eng.BestMove(context.Background(), pos, Beginner)
		require.NoError(t, err, "FEN %s", fen)
		assert.True(t, pos.IsMoveLegal(result.Move),
			"move %s not legal in %s", result.Move, fen)
	}
}

func TestBestMoveFindsMateInOne(t *testing.T) {
	pos := position(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")

	eng := New(16)
	result, err := eng.BestMove(context.Background(), pos, Intermediate)
	require.NoError(t, err)

	assert.Equal(t, "a1a8", result.Move.String(), "back-rank mate")
	assert.Greater(t, result.Score, MateScore)
}

func TestBestMoveTakesHangingQueen(t *testing.T) {
	pos := position(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")

	eng := New(16)
	result, err := eng.BestMove(context.Background(), pos, Beginner)
	require.NoError(t, err)

	assert.Equal(t, "e4d5", result.Move.String())
}

func TestBestMoveTerminalPositions(t *testing.T) {
	eng := New(16)

	// Checkmate (Fool's mate final position, White to move)
	mated := position(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	_, err := eng.BestMove(context.Background(), mated, Intermediate)
	assert.ErrorIs(t, err, ErrNoLegalMoves)

	// Stalemate
	stale := position(t, "k7/8/1Q6/8/8/8/8/7K b - - 0 1")
	_, err = eng.BestMove(context.Background(), stale, Intermediate)
	assert.ErrorIs(t, err, ErrNoLegalMoves)
}

func TestEvaluate(t *testing.T) {
	assert.Zero(t, Evaluate(chess.NewPosition()), "starting position is balanced")

	// White is a queen up.
	pos := position(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	assert.Greater(t, Evaluate(pos), 800)

	// Same position from Black's perspective.
	pos = position(t, "4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	assert.Less(t, Evaluate(pos), -800)
}

func TestMoveOrdering(t *testing.T) {
	pos := position(t, "4k3/1P6/8/3q4/4P3/8/8/4K3 w - - 0 1")

	capture, err := chess.ParseMove("e4d5", pos)
	require.NoError(t, err)
	promo, err := chess.ParseMove("b7b8q", pos)
	require.NoError(t, err)
	quiet, err := chess.ParseMove("e1d1", pos)
	require.NoError(t, err)

	ttScore := scoreMove(pos, quiet, quiet, chess.NoMove)
	promoScore := scoreMove(pos, promo, chess.NoMove, chess.NoMove)
	captureScore := scoreMove(pos, capture, chess.NoMove, chess.NoMove)
	quietScore := scoreMove(pos, quiet, chess.NoMove, chess.NoMove)

	assert.Greater(t, ttScore, promoScore, "hash move first")
	assert.Greater(t, promoScore, captureScore, "promotions before captures")
	assert.Greater(t, captureScore, quietScore, "captures before quiet moves")
}

func TestTranspositionTable(t *testing.T) {
	tt := NewTranspositionTable(1)

	hash := uint64(0xDEADBEEFCAFE1234)
	move := chess.NewMove(chess.E2, chess.E4)

	_, found := tt.Probe(hash)
	assert.False(t, found, "miss before store")

	tt.Store(hash, 5, 42, TTExact, move)

	entry, found := tt.Probe(hash)
	require.True(t, found)
	assert.Equal(t, int32(42), entry.Score)
	assert.Equal(t, int8(5), entry.Depth)
	assert.Equal(t, TTExact, entry.Flag)
	assert.Equal(t, move, entry.BestMove)

	// Always-replace: a shallower result still overwrites the slot.
	tt.Store(hash, 2, -10, TTUpperBound, chess.NoMove)
	entry, found = tt.Probe(hash)
	require.True(t, found)
	assert.Equal(t, int8(2), entry.Depth)
	assert.Equal(t, int32(-10), entry.Score)
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("master")
	require.NoError(t, err)
	assert.Equal(t, Master, d)

	d, err = ParseDifficulty("BEGINNER")
	require.NoError(t, err)
	assert.Equal(t, Beginner, d)

	_, err = ParseDifficulty("grandmaster")
	assert.Error(t, err)
}

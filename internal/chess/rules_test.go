package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	require.NoError(t, err)
	return pos
}

func applyMoves(t *testing.T, pos *Position, moves ...string) *Position {
	t.Helper()
	for _, s := range moves {
		m, err := ParseMove(s, pos)
		require.NoError(t, err)
		require.True(t, pos.IsMoveLegal(m), "move %s should be legal in %s", s, pos.ToFEN())
		pos = pos.Apply(m)
	}
	return pos
}

func TestLegalMovesNeverLeaveKingInCheck(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", // in check
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}

	for _, fen := range fens {
		pos := mustParse(t, fen)
		us := pos.SideToMove
		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			next := pos.Apply(moves.Get(i))
			assert.False(t, next.IsInCheck(us),
				"move %s leaves own king in check in %s", moves.Get(i), fen)
		}
	}
}

func TestApplyTogglesSideAndCounters(t *testing.T) {
	pos := NewPosition()

	next := applyMoves(t, pos, "e2e4")
	assert.Equal(t, Black, next.SideToMove)
	assert.Equal(t, 0, next.HalfMoveClock, "pawn move resets clock")
	assert.Equal(t, 1, next.FullMoveNumber)

	next = applyMoves(t, next, "g8f6")
	assert.Equal(t, White, next.SideToMove)
	assert.Equal(t, 1, next.HalfMoveClock, "quiet knight move increments clock")
	assert.Equal(t, 2, next.FullMoveNumber, "full move advances after Black")
}

func TestEnPassant(t *testing.T) {
	pos := applyMoves(t, NewPosition(), "e2e4", "a7a6", "e4e5", "d7d5")
	require.Equal(t, D6, pos.EnPassant)

	m, err := ParseMove("e5d6", pos)
	require.NoError(t, err)
	require.True(t, m.IsEnPassant())
	require.True(t, pos.IsMoveLegal(m))

	next := pos.Apply(m)
	assert.Equal(t, NoPiece, next.PieceAt(D5), "captured pawn removed")
	assert.Equal(t, WhitePawn, next.PieceAt(D6))
	assert.Equal(t, NoSquare, next.EnPassant)
}

func TestCastlingRules(t *testing.T) {
	t.Run("emitted when path clear and unattacked", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		moves := pos.GenerateLegalMoves()
		assert.True(t, moves.Contains(NewCastling(E1, G1)))
		assert.True(t, moves.Contains(NewCastling(E1, C1)))
	})

	t.Run("not emitted while in check", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/4r3/8/8/R3K2R w KQkq - 0 1")
		moves := pos.GenerateLegalMoves()
		assert.False(t, moves.Contains(NewCastling(E1, G1)))
		assert.False(t, moves.Contains(NewCastling(E1, C1)))
	})

	t.Run("not emitted through attacked square", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/5r2/8/8/R3K2R w KQkq - 0 1") // f1 attacked
		moves := pos.GenerateLegalMoves()
		assert.False(t, moves.Contains(NewCastling(E1, G1)))
		assert.True(t, moves.Contains(NewCastling(E1, C1)))
	})

	t.Run("queenside b-file attack does not block", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/1r6/8/8/R3K2R w KQkq - 0 1") // b1 attacked only
		moves := pos.GenerateLegalMoves()
		assert.True(t, moves.Contains(NewCastling(E1, C1)))
	})

	t.Run("king move clears both rights", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		next := applyMoves(t, pos, "e1e2")
		assert.Equal(t, NoCastling, next.CastlingRights&(WhiteKingSideCastle|WhiteQueenSideCastle))
	})

	t.Run("rook move clears matching right", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		next := applyMoves(t, pos, "h1g1")
		assert.Zero(t, next.CastlingRights&WhiteKingSideCastle)
		assert.NotZero(t, next.CastlingRights&WhiteQueenSideCastle)
	})

	t.Run("castling relocates the rook", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		next := pos.Apply(NewCastling(E1, G1))
		assert.Equal(t, WhiteKing, next.PieceAt(G1))
		assert.Equal(t, WhiteRook, next.PieceAt(F1))
		assert.Equal(t, NoPiece, next.PieceAt(H1))
	})
}

func TestScholarsMate(t *testing.T) {
	pos := applyMoves(t, NewPosition(),
		"e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6", "h5f7")

	assert.True(t, pos.InCheck())
	assert.True(t, pos.IsCheckmate())
	assert.False(t, pos.IsStalemate())
}

func TestFoolsMate(t *testing.T) {
	pos := applyMoves(t, NewPosition(), "f2f3", "e7e5", "g2g4", "d8h4")
	assert.True(t, pos.IsCheckmate())
}

func TestStalemate(t *testing.T) {
	pos := applyMoves(t, mustParse(t, "7k/8/5K2/5Q2/8/8/8/8 w - - 0 1"), "f5g6")
	assert.True(t, pos.IsStalemate())
	assert.False(t, pos.IsCheckmate())
	assert.False(t, pos.InCheck())
}

func TestFiftyMoveRule(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/4K2R w - - 99 80")
	assert.False(t, pos.IsFiftyMoveRule())

	next := applyMoves(t, pos, "h1h2")
	assert.True(t, next.IsFiftyMoveRule())
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", true},                 // K vs K
		{"4k3/8/8/8/8/3N4/8/4K3 w - - 0 1", true},               // K+N vs K
		{"4k3/8/8/8/8/3b4/8/4K3 w - - 0 1", true},               // K vs K+B
		{"4k3/8/8/8/8/2Bb4/8/4K3 w - - 0 1", false},             // opposite-colour bishops
		{"4kb2/8/8/8/8/2B5/8/4K3 w - - 0 1", true},              // same-colour bishops
		{"4k3/8/8/8/8/3NN3/8/4K3 w - - 0 1", false},             // two knights
		{"4k3/p7/8/8/8/8/8/4K3 w - - 0 1", false},               // pawn present
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", false},               // rook present
	}

	for _, tc := range tests {
		pos := mustParse(t, tc.fen)
		assert.Equal(t, tc.want, pos.IsInsufficientMaterial(), "FEN %s", tc.fen)
	}
}

func TestInsufficientMaterialAfterCapture(t *testing.T) {
	pos := applyMoves(t, mustParse(t, "4k3/8/8/8/8/3n4/4K3/8 w - - 0 1"), "e2d3")
	assert.True(t, pos.IsInsufficientMaterial())
}

func TestPromotionExpansion(t *testing.T) {
	pos := mustParse(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")
	moves := pos.GenerateLegalMoves()

	promos := 0
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).IsPromotion() {
			promos++
		}
	}
	assert.Equal(t, 4, promos, "promotion expands into four moves")
}

func TestMakeMoveNoPieceIsNoOp(t *testing.T) {
	pos := NewPosition()
	before := pos.ToFEN()
	undo := pos.MakeMove(NewMove(E4, E5))
	assert.False(t, undo.Valid)
	assert.Equal(t, before, pos.ToFEN())
}

func TestIncrementalHashMatchesRecompute(t *testing.T) {
	pos := NewPosition()
	moves := []string{"e2e4", "c7c5", "g1f3", "d7d6", "f1b5", "c8d7", "b5d7", "d8d7", "e1g1"}
	for _, s := range moves {
		m, err := ParseMove(s, pos)
		require.NoError(t, err)
		pos = pos.Apply(m)
		assert.Equal(t, pos.ComputeHash(), pos.Hash, "after %s", s)
	}
}

func TestBetween(t *testing.T) {
	assert.Equal(t, SquareBB(F1)|SquareBB(G1), Between(E1, H1))
	assert.Equal(t, SquareBB(B1)|SquareBB(C1)|SquareBB(D1), Between(E1, A1))
	assert.Equal(t, SquareBB(D4)|SquareBB(E5)|SquareBB(F6), Between(C3, G7))
	assert.Equal(t, Empty, Between(A1, B3), "unaligned squares have no between set")
}

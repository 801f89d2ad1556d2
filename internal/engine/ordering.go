package engine

import "github.com/arenalabs/chessarena/internal/chess"

// Move ordering priorities. The hash move and the previous iteration's
// principal-variation move jump the queue; promotions outrank every
// capture, captures are ranked MVV-LVA, and quiet moves fall back to
// their piece-square delta.
const (
	ttMoveScore    = 1000000
	pvMoveScore    = 500000
	promotionBonus = 10000
	queenBonus     = 1000
)

// scoreMoves assigns ordering scores to every move in the list.
func scoreMoves(pos *chess.Position, moves *chess.MoveList, ttMove, pvMove chess.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = scoreMove(pos, moves.Get(i), ttMove, pvMove)
	}
	return scores
}

// scoreMove returns the ordering score for a single move.
func scoreMove(pos *chess.Position, m chess.Move, ttMove, pvMove chess.Move) int {
	if m == ttMove {
		return ttMoveScore
	}
	if m == pvMove {
		return pvMoveScore
	}

	score := 0

	if m.IsPromotion() {
		score += promotionBonus
		if m.Promotion() == chess.Queen {
			score += queenBonus
		}
	}

	victim := capturedType(pos, m)
	if victim != chess.NoPieceType {
		// MVV-LVA: most valuable victim first, least valuable attacker
		// as tiebreak.
		attacker := pos.PieceAt(m.From()).Type()
		return score + 10*pieceValues[victim] - pieceValues[attacker]
	}

	if score > 0 {
		return score
	}

	// Quiet move: piece-square improvement.
	piece := pos.PieceAt(m.From())
	return pstValue(piece.Type(), m.To(), piece.Color()) -
		pstValue(piece.Type(), m.From(), piece.Color())
}

// capturedType returns the piece type a move captures, or NoPieceType
// for quiet moves.
func capturedType(pos *chess.Position, m chess.Move) chess.PieceType {
	if m.IsEnPassant() {
		return chess.Pawn
	}
	if target := pos.PieceAt(m.To()); target != chess.NoPiece {
		return target.Type()
	}
	return chess.NoPieceType
}

// pickMove performs one step of lazy selection sort: it finds the
// highest-scored move at index >= i and swaps it into position i.
// Cheaper than a full sort when beta cutoffs end the loop early.
func pickMove(moves *chess.MoveList, scores []int, i int) chess.Move {
	bestIdx := i
	for j := i + 1; j < moves.Len(); j++ {
		if scores[j] > scores[bestIdx] {
			bestIdx = j
		}
	}

	if bestIdx != i {
		moves.Swap(i, bestIdx)
		scores[i], scores[bestIdx] = scores[bestIdx], scores[i]
	}

	return moves.Get(i)
}

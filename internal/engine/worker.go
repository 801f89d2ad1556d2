package engine

import (
	"sync/atomic"

	"github.com/arenalabs/chessarena/internal/chess"
)

// Search score sentinels. Mate scores are offset by the remaining depth
// so that shorter mates score higher.
const (
	Infinity  = 1000000
	MateScore = 100000
)

// worker runs one independent iterative-deepening search, Lazy SMP
// style. Workers share nothing but the transposition table and the node
// counter; move ordering divergence plus TT traffic is what makes the
// helpers useful.
type worker struct {
	id    int
	pos   *chess.Position
	tt    *TranspositionTable
	nodes *atomic.Uint64

	// Best root move from the previous iteration, used as an ordering
	// hint for the next one.
	rootPV chess.Move
}

// search runs iterative deepening up to maxDepth and returns the result
// of the deepest completed iteration.
func (w *worker) search(maxDepth int) Result {
	var result Result

	// Helpers start one iteration in, which desynchronises their TT
	// writes from the main worker's.
	start := 1
	if w.id > 0 {
		start = 2
		if start > maxDepth {
			start = maxDepth
		}
	}

	for depth := start; depth <= maxDepth; depth++ {
		move, score := w.searchRoot(depth)
		if move == chess.NoMove {
			break
		}
		result = Result{Move: move, Score: score, Depth: depth}
		w.rootPV = move
	}

	return result
}

// searchRoot searches the root node at the given depth and returns the
// best move with its score.
func (w *worker) searchRoot(depth int) (chess.Move, int) {
	w.nodes.Add(1)

	moves := w.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		return chess.NoMove, -(MateScore + depth)
	}

	var ttMove chess.Move
	if entry, ok := w.tt.Probe(w.pos.Hash); ok {
		ttMove = entry.BestMove
	}

	scores := scoreMoves(w.pos, moves, ttMove, w.rootPV)

	alpha, beta := -Infinity, Infinity
	bestMove := chess.NoMove

	for i := 0; i < moves.Len(); i++ {
		m := pickMove(moves, scores, i)

		undo := w.pos.MakeMove(m)
		score := -w.negamax(depth-1, -beta, -alpha)
		w.pos.UnmakeMove(m, undo)

		if score > alpha || bestMove == chess.NoMove {
			alpha = score
			bestMove = m
		}
	}

	w.tt.Store(w.pos.Hash, depth, alpha, TTExact, bestMove)

	return bestMove, alpha
}

// negamax is a plain fail-soft alpha-beta search. Leaves take the static
// evaluation; there is no quiescence pass, the playing strength knob is
// depth alone.
func (w *worker) negamax(depth, alpha, beta int) int {
	w.nodes.Add(1)
	alphaOrig := alpha

	var ttMove chess.Move
	if entry, ok := w.tt.Probe(w.pos.Hash); ok {
		if int(entry.Depth) >= depth {
			score := int(entry.Score)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
		ttMove = entry.BestMove
	}

	moves := w.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		// Mated (or stalemated) this many plies from the horizon.
		return -(MateScore + depth)
	}

	if depth <= 0 {
		return Evaluate(w.pos)
	}

	scores := scoreMoves(w.pos, moves, ttMove, chess.NoMove)

	best := -Infinity
	bestMove := chess.NoMove

	for i := 0; i < moves.Len(); i++ {
		m := pickMove(moves, scores, i)

		undo := w.pos.MakeMove(m)
		score := -w.negamax(depth-1, -beta, -alpha)
		w.pos.UnmakeMove(m, undo)

		if score > best {
			best = score
			bestMove = m
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}

	flag := TTExact
	if best <= alphaOrig {
		flag = TTUpperBound
	} else if best >= beta {
		flag = TTLowerBound
	}
	w.tt.Store(w.pos.Hash, depth, best, flag, bestMove)

	return best
}

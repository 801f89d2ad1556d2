package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/seekerror/logw"
	"golang.org/x/sync/errgroup"

	"github.com/arenalabs/chessarena/internal/chess"
)

// ErrNoLegalMoves is returned when the engine is asked to move in a
// terminal position.
var ErrNoLegalMoves = errors.New("no legal moves")

// Difficulty selects how hard the engine plays.
type Difficulty int

const (
	Beginner Difficulty = iota
	Intermediate
	Advanced
	Master
)

var difficultyNames = map[Difficulty]string{
	Beginner:     "BEGINNER",
	Intermediate: "INTERMEDIATE",
	Advanced:     "ADVANCED",
	Master:       "MASTER",
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// ParseDifficulty parses a difficulty name, case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	for d, name := range difficultyNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return Intermediate, fmt.Errorf("unknown difficulty %q", s)
}

// searchSettings maps a difficulty to a search depth and a worker count.
// Depth is the strength knob; extra workers mostly buy speed.
type searchSettings struct {
	Depth   int
	Workers int
}

var difficultySettings = map[Difficulty]searchSettings{
	Beginner:     {Depth: 2, Workers: 1},
	Intermediate: {Depth: 4, Workers: 2},
	Advanced:     {Depth: 5, Workers: 2},
	Master:       {Depth: 7, Workers: 4},
}

// Result is the outcome of a search.
type Result struct {
	Move  chess.Move
	Score int
	Depth int
	Nodes uint64
}

// Engine computes moves for the AI opponent. It is stateless across
// calls; each BestMove allocates a fresh transposition table, so
// concurrent games never share search state.
type Engine struct {
	ttSizeMB int
}

// New creates an engine whose per-search transposition table uses the
// given budget in MB.
func New(ttSizeMB int) *Engine {
	return &Engine{ttSizeMB: ttSizeMB}
}

// BestMove searches the position at the given difficulty and returns
// the best move found. Fails with ErrNoLegalMoves on terminal positions.
func (e *Engine) BestMove(ctx context.Context, pos *chess.Position, difficulty Difficulty) (Result, error) {
	settings, ok := difficultySettings[difficulty]
	if !ok {
		settings = difficultySettings[Intermediate]
	}

	if !pos.HasLegalMoves() {
		return Result{}, ErrNoLegalMoves
	}

	tt := NewTranspositionTable(e.ttSizeMB)
	logw.Debugf(ctx, "engine: search depth=%d workers=%d tt=%dMB fen=%q",
		settings.Depth, settings.Workers, e.ttSizeMB, pos.ToFEN())

	var nodes atomic.Uint64
	results := make([]Result, settings.Workers)

	var g errgroup.Group
	for i := 0; i < settings.Workers; i++ {
		i := i
		g.Go(func() error {
			w := &worker{id: i, pos: pos.Copy(), tt: tt, nodes: &nodes}
			results[i] = w.search(settings.Depth)
			return nil
		})
	}
	_ = g.Wait()

	var best Result
	for _, r := range results {
		if r.Move == chess.NoMove {
			continue
		}
		if best.Move == chess.NoMove ||
			r.Score > best.Score ||
			(r.Score == best.Score && r.Depth > best.Depth) {
			best = r
		}
	}
	best.Nodes = nodes.Load()

	if best.Move == chess.NoMove {
		return Result{}, ErrNoLegalMoves
	}

	logw.Debugf(ctx, "engine: best=%s score=%d depth=%d nodes=%d tt_hit=%.1f%%",
		best.Move, best.Score, best.Depth, best.Nodes, tt.HitRate())

	return best, nil
}

// Package session serialises all mutations of one game through a room:
// a single goroutine owning the aggregate, fed by a command channel.
// This gives every game the single-writer region the event ordering
// guarantees rely on, without a per-game lock.
package session

import (
	"context"
	"time"

	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/engine"
	"github.com/arenalabs/chessarena/internal/game"
)

// BotUserID marks the engine participant of bot games.
const BotUserID = "bot"

// EventSink receives domain events together with the game they belong
// to. The game reference is only valid for the duration of the call.
type EventSink interface {
	GameEvent(ctx context.Context, g *game.Game, ev game.Event)
}

// room owns one game. All access goes through the command channel,
// consumed by a single goroutine.
type room struct {
	mgr *Manager
	g   *game.Game

	cmds chan func()
	done chan struct{}
}

func newRoom(mgr *Manager, g *game.Game) *room {
	r := &room{
		mgr:  mgr,
		g:    g,
		cmds: make(chan func(), 32),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *room) run() {
	for {
		select {
		case cmd := <-r.cmds:
			cmd()
		case <-r.done:
			return
		}
	}
}

func (r *room) stop() {
	close(r.done)
}

// do runs fn on the room goroutine and waits for it to finish.
func (r *room) do(fn func()) {
	doneCh := make(chan struct{})
	select {
	case r.cmds <- func() {
		fn()
		close(doneCh)
	}:
		<-doneCh
	case <-r.done:
	}
}

// makeMove applies a move on behalf of a player, persists, emits the
// event and schedules the engine reply when due.
func (r *room) makeMove(ctx context.Context, playerID string, m chess.Move) (game.MoveExecuted, error) {
	var ev game.MoveExecuted
	var err error

	r.do(func() {
		ev, err = r.g.MakeMove(playerID, m, time.Now())
		if err != nil {
			return
		}
		r.persistAndEmit(ctx, ev)
		r.maybeScheduleBot(ctx)
	})

	return ev, err
}

// offerDraw registers a draw offer.
func (r *room) offerDraw(ctx context.Context, playerID string) error {
	var err error
	r.do(func() {
		var ev game.DrawOffered
		ev, err = r.g.OfferDraw(playerID)
		if err != nil {
			return
		}
		r.persistAndEmit(ctx, ev)
	})
	return err
}

// acceptDraw ends the game in a draw.
func (r *room) acceptDraw(ctx context.Context, playerID string) error {
	var err error
	r.do(func() {
		var ev game.DrawAccepted
		ev, err = r.g.AcceptDraw(playerID)
		if err != nil {
			return
		}
		r.persistAndEmit(ctx, ev)
	})
	return err
}

// rejectDraw clears a pending offer.
func (r *room) rejectDraw(ctx context.Context, playerID string) error {
	var err error
	r.do(func() {
		var ev game.DrawRejected
		ev, err = r.g.RejectDraw(playerID)
		if err != nil {
			return
		}
		r.persistAndEmit(ctx, ev)
	})
	return err
}

// resign ends the game with the opponent as winner.
func (r *room) resign(ctx context.Context, playerID string) error {
	var err error
	r.do(func() {
		var ev game.GameResigned
		ev, err = r.g.Resign(playerID)
		if err != nil {
			return
		}
		r.persistAndEmit(ctx, ev)
	})
	return err
}

// snapshot returns a consistent copy of the aggregate for readers.
func (r *room) snapshot() *game.Game {
	var snap game.Game
	r.do(func() {
		snap = *r.g
		snap.History = append([]game.MoveRecord(nil), r.g.History...)
	})
	return &snap
}

// withGame runs fn against the live aggregate on the room goroutine.
func (r *room) withGame(fn func(g *game.Game) error) error {
	var err error
	r.do(func() {
		err = fn(r.g)
	})
	return err
}

// persistAndEmit saves the aggregate and hands the event to the sink.
// A persistence failure is logged but does not retract the in-memory
// transition; the next successful save catches the store up.
func (r *room) persistAndEmit(ctx context.Context, ev game.Event) {
	if err := r.mgr.st.SaveGame(ctx, r.g); err != nil {
		logw.Errorf(ctx, "session: persist game %s: %v", r.g.ID, err)
	}
	if sink := r.mgr.sink; sink != nil {
		sink.GameEvent(ctx, r.g, ev)
	}
}

// maybeScheduleBot kicks off an engine move when a bot game is waiting
// on the engine's side. Runs on the room goroutine; the search itself
// runs outside it and submits the move like any other player.
func (r *room) maybeScheduleBot(ctx context.Context) {
	if !r.g.VsBot || r.g.Status.Terminal() {
		return
	}

	botPlayer := r.g.PlayerBySide(chess.Black)
	if botPlayer.UserID != BotUserID || r.g.CurrentSide() != chess.Black {
		return
	}

	difficulty, err := engine.ParseDifficulty(r.g.Difficulty)
	if err != nil {
		difficulty = engine.Intermediate
	}
	pos := r.g.Position

	go func() {
		result, err := r.mgr.eng.BestMove(ctx, pos, difficulty)
		if err != nil {
			logw.Errorf(ctx, "session: engine move for game %s: %v", r.g.ID, err)
			return
		}
		if _, err := r.makeMove(ctx, botPlayer.ID, result.Move); err != nil {
			logw.Errorf(ctx, "session: apply engine move for game %s: %v", r.g.ID, err)
		}
	}()
}

package matchmaking

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/game"
	"github.com/arenalabs/chessarena/internal/store"
)

// matchTTL is how long a match waits for both players to connect.
const matchTTL = 5 * time.Minute

// ResultStatus tags the matchmaking result variant.
type ResultStatus string

const (
	StatusWaiting  ResultStatus = "WAITING"
	StatusMatched  ResultStatus = "MATCHED"
	StatusNotFound ResultStatus = "NOT_FOUND"
)

// Result is the outcome of a join or status query.
type Result struct {
	Status        ResultStatus
	QueuePosition int         // set for WAITING
	GameID        string      // set for MATCHED
	Color         chess.Color // set for MATCHED
}

// GameCreator creates and registers a new game for two freshly minted
// players. Implemented by the session manager.
type GameCreator interface {
	CreateGame(ctx context.Context, white, black game.Player) (*game.Game, error)
}

// Notifier pushes a MatchFound message to a user's matchmaking socket.
// Implemented by the hub; delivery is best-effort.
type Notifier interface {
	MatchFound(ctx context.Context, userID, gameID string, color chess.Color)
}

// Service runs the pairing flow on top of the queue and the match
// repository.
type Service struct {
	queue    *Queue
	store    *store.Store
	games    GameCreator
	notifier Notifier
}

// NewService creates a matchmaking service.
func NewService(q *Queue, st *store.Store, games GameCreator) *Service {
	return &Service{queue: q, store: st, games: games}
}

// SetNotifier wires the hub in after construction (the hub also depends
// on the service, so one side is attached late).
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Queue exposes the underlying queue for the hub's disconnect handling.
func (s *Service) Queue() *Queue {
	return s.queue
}

// Join enqueues a user and attempts a pair-up. Returns Waiting with the
// user's queue position, or Matched with the created game.
func (s *Service) Join(ctx context.Context, userID string) (Result, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		return Result{}, ErrUnknownUser
	}

	if s.queue.IsQueued(userID) {
		return Result{}, ErrAlreadyQueued
	}

	if m, err := s.store.FindMatchByUser(ctx, userID); err == nil && !m.Expired(time.Now()) {
		return Result{}, ErrAlreadyMatched
	} else if err != nil && err != store.ErrMatchNotFound {
		return Result{}, err
	}

	if err := s.queue.Add(userID); err != nil {
		return Result{}, err
	}

	first, second, ok := s.queue.FindMatch()
	if !ok {
		return Result{Status: StatusWaiting, QueuePosition: s.queue.Size()}, nil
	}

	match, err := s.createMatch(ctx, first, second)
	if err != nil {
		// Neither user stays queued after a failed pair-up; both have to
		// rejoin.
		s.queue.Remove(first)
		s.queue.Remove(second)
		return Result{}, err
	}

	color := chess.White
	if match.BlackUserID == userID {
		color = chess.Black
	}
	return Result{Status: StatusMatched, GameID: match.GameID, Color: color}, nil
}

// Leave removes a user from the queue.
func (s *Service) Leave(ctx context.Context, userID string) bool {
	return s.queue.Remove(userID)
}

// createMatch assigns colours uniformly at random, creates the game and
// persists the match record, then notifies both users.
func (s *Service) createMatch(ctx context.Context, first, second string) (*store.Match, error) {
	whiteUser, blackUser := first, second
	if rand.Intn(2) == 1 {
		whiteUser, blackUser = second, first
	}

	// Fresh player ids per participation.
	white := game.Player{ID: uuid.NewString(), UserID: whiteUser, Side: chess.White}
	black := game.Player{ID: uuid.NewString(), UserID: blackUser, Side: chess.Black}

	g, err := s.games.CreateGame(ctx, white, black)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	now := time.Now()
	match := &store.Match{
		GameID:        g.ID,
		WhitePlayerID: white.ID,
		BlackPlayerID: black.ID,
		WhiteUserID:   whiteUser,
		BlackUserID:   blackUser,
		MatchedAt:     now,
		ExpiresAt:     now.Add(matchTTL),
	}
	if err := s.store.SaveMatch(ctx, match); err != nil {
		return nil, err
	}

	logw.Infof(ctx, "matchmaking: paired %s (white) vs %s (black), game %s", whiteUser, blackUser, g.ID)

	if s.notifier != nil {
		s.notifier.MatchFound(ctx, whiteUser, g.ID, chess.White)
		s.notifier.MatchFound(ctx, blackUser, g.ID, chess.Black)
	}

	return match, nil
}

// CompleteMatch deletes the match record once both players have
// connected to the game; the record otherwise lives until its expiry.
// Safe to call again after reconnects.
func (s *Service) CompleteMatch(ctx context.Context, gameID string) {
	err := s.store.DeleteMatch(ctx, gameID)
	switch err {
	case nil:
		logw.Infof(ctx, "matchmaking: match %s claimed by both players", gameID)
	case store.ErrMatchNotFound:
	default:
		logw.Warningf(ctx, "matchmaking: complete match %s: %v", gameID, err)
	}
}

// Status performs an expiry cleanup, then reports where the user stands.
func (s *Service) Status(ctx context.Context, userID string) (Result, error) {
	if _, err := s.CleanupExpiredMatches(ctx); err != nil {
		return Result{}, err
	}

	if pos := s.queue.Position(userID); pos > 0 {
		return Result{Status: StatusWaiting, QueuePosition: pos}, nil
	}

	m, err := s.store.FindMatchByUser(ctx, userID)
	if err == store.ErrMatchNotFound {
		return Result{Status: StatusNotFound}, nil
	}
	if err != nil {
		return Result{}, err
	}

	color := chess.White
	if m.BlackUserID == userID {
		color = chess.Black
	}
	return Result{Status: StatusMatched, GameID: m.GameID, Color: color}, nil
}

// CleanupExpiredMatches removes every match past its claim window and
// returns how many were reclaimed.
func (s *Service) CleanupExpiredMatches(ctx context.Context) (int, error) {
	matches, err := s.store.FindAllMatches(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	removed := 0
	for _, m := range matches {
		if !m.Expired(now) {
			continue
		}
		switch err := s.store.DeleteMatch(ctx, m.GameID); err {
		case nil:
			removed++
		case store.ErrMatchNotFound: // claimed concurrently
		default:
			logw.Warningf(ctx, "matchmaking: failed to reclaim match %s: %v", m.GameID, err)
		}
	}
	if removed > 0 {
		logw.Infof(ctx, "matchmaking: reclaimed %d expired matches", removed)
	}
	return removed, nil
}

// Sweep runs CleanupExpiredMatches on a ticker until the context ends.
func (s *Service) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpiredMatches(ctx); err != nil {
				logw.Warningf(ctx, "matchmaking: expiry sweep: %v", err)
			}
		}
	}
}

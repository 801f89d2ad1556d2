package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/engine"
	"github.com/arenalabs/chessarena/internal/game"
	"github.com/arenalabs/chessarena/internal/store"
)

// Manager opens and tracks rooms, one per active game. Rooms for
// persisted games are revived lazily on first access, so the server can
// restart without losing games.
type Manager struct {
	st   *store.Store
	eng  *engine.Engine
	sink EventSink

	mu    sync.Mutex
	rooms map[string]*room
}

// NewManager creates a session manager.
func NewManager(st *store.Store, eng *engine.Engine) *Manager {
	return &Manager{
		st:    st,
		eng:   eng,
		rooms: make(map[string]*room),
	}
}

// SetSink wires the event dispatcher in after construction.
func (m *Manager) SetSink(sink EventSink) {
	m.sink = sink
}

// CreateGame creates, persists and opens a room for a game between two
// human players. Implements the matchmaking service's GameCreator.
func (m *Manager) CreateGame(ctx context.Context, white, black game.Player) (*game.Game, error) {
	g := game.New(uuid.NewString(), white, black, time.Now())
	if err := m.st.SaveGame(ctx, g); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.rooms[g.ID] = newRoom(m, g)
	m.mu.Unlock()

	logw.Infof(ctx, "session: opened game %s (%s vs %s)", g.ID, white.UserID, black.UserID)
	return g, nil
}

// CreateBotGame creates a game where the engine plays Black at the
// given difficulty.
func (m *Manager) CreateBotGame(ctx context.Context, userID, difficulty string) (*game.Game, error) {
	if _, err := engine.ParseDifficulty(difficulty); err != nil {
		return nil, err
	}

	white := game.Player{ID: uuid.NewString(), UserID: userID, Side: chess.White}
	black := game.Player{ID: uuid.NewString(), UserID: BotUserID, Side: chess.Black}

	g := game.New(uuid.NewString(), white, black, time.Now())
	g.VsBot = true
	g.Difficulty = difficulty
	if err := m.st.SaveGame(ctx, g); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.rooms[g.ID] = newRoom(m, g)
	m.mu.Unlock()

	logw.Infof(ctx, "session: opened bot game %s for %s (%s)", g.ID, userID, difficulty)
	return g, nil
}

// room returns the live room for a game, reviving it from the store
// when needed.
func (m *Manager) room(ctx context.Context, gameID string) (*room, error) {
	m.mu.Lock()
	if r, ok := m.rooms[gameID]; ok {
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	g, err := m.st.FindGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[gameID]; ok { // lost the race, reuse
		return r, nil
	}
	r := newRoom(m, g)
	m.rooms[gameID] = r
	return r, nil
}

// Game returns a consistent snapshot of a game.
func (m *Manager) Game(ctx context.Context, gameID string) (*game.Game, error) {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

// MakeMove applies a move by player id.
func (m *Manager) MakeMove(ctx context.Context, gameID, playerID string, mv chess.Move) (game.MoveExecuted, error) {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return game.MoveExecuted{}, err
	}
	return r.makeMove(ctx, playerID, mv)
}

// MakeMoveByUser resolves the caller's participation first, then moves.
func (m *Manager) MakeMoveByUser(ctx context.Context, gameID, userID string, mv chess.Move) (game.MoveExecuted, error) {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return game.MoveExecuted{}, err
	}

	var playerID string
	if err := r.withGame(func(g *game.Game) error {
		p, ok := g.PlayerByUserID(userID)
		if !ok {
			return game.ErrNotAParticipant
		}
		playerID = p.ID
		return nil
	}); err != nil {
		return game.MoveExecuted{}, err
	}

	return r.makeMove(ctx, playerID, mv)
}

// OfferDraw registers a draw offer by player id.
func (m *Manager) OfferDraw(ctx context.Context, gameID, playerID string) error {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return err
	}
	return r.offerDraw(ctx, playerID)
}

// AcceptDraw accepts a pending draw offer.
func (m *Manager) AcceptDraw(ctx context.Context, gameID, playerID string) error {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return err
	}
	return r.acceptDraw(ctx, playerID)
}

// RejectDraw declines a pending draw offer.
func (m *Manager) RejectDraw(ctx context.Context, gameID, playerID string) error {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return err
	}
	return r.rejectDraw(ctx, playerID)
}

// Resign resigns the game for the given player.
func (m *Manager) Resign(ctx context.Context, gameID, playerID string) error {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return err
	}
	return r.resign(ctx, playerID)
}

// NotifyDisconnected emits a PlayerDisconnected event. Game state never
// changes on disconnect.
func (m *Manager) NotifyDisconnected(ctx context.Context, gameID, playerID string) {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return
	}
	r.do(func() {
		if sink := m.sink; sink != nil {
			sink.GameEvent(ctx, r.g, game.PlayerDisconnected{GameID: gameID, PlayerID: playerID})
		}
	})
}

// NotifyReconnected emits a PlayerReconnected event.
func (m *Manager) NotifyReconnected(ctx context.Context, gameID, playerID string) {
	r, err := m.room(ctx, gameID)
	if err != nil {
		return
	}
	r.do(func() {
		if sink := m.sink; sink != nil {
			sink.GameEvent(ctx, r.g, game.PlayerReconnected{GameID: gameID, PlayerID: playerID})
		}
	})
}

// Close stops every room.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.stop()
		delete(m.rooms, id)
	}
}

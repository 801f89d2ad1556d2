package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/seekerror/logw"

	"github.com/arenalabs/chessarena/internal/chess"
	"github.com/arenalabs/chessarena/internal/game"
)

// gameRow is the persisted shape of a game. The position is stored as
// FEN and rebuilt on load.
type gameRow struct {
	ID            string    `json:"id"`
	WhitePlayerID string    `json:"whitePlayerId"`
	WhiteUserID   string    `json:"whiteUserId"`
	BlackPlayerID string    `json:"blackPlayerId"`
	BlackUserID   string    `json:"blackUserId"`
	FEN           string    `json:"fen"`
	CurrentSide   string    `json:"currentSide"`
	Status        string    `json:"status"`
	DrawOfferedBy string    `json:"drawOfferedBy,omitempty"`
	Winner        string    `json:"winner,omitempty"`
	VsBot         bool      `json:"vsBot,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// moveRow is one persisted history entry.
type moveRow struct {
	Number    int       `json:"number"`
	Notation  string    `json:"notation"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveGame upserts the game row and replaces its move history wholesale
// in a single transaction.
func (s *Store) SaveGame(ctx context.Context, g *game.Game) error {
	row := gameRow{
		ID:            g.ID,
		WhitePlayerID: g.White.ID,
		WhiteUserID:   g.White.UserID,
		BlackPlayerID: g.Black.ID,
		BlackUserID:   g.Black.UserID,
		FEN:           g.Position.ToFEN(),
		CurrentSide:   game.SideName(g.CurrentSide()),
		Status:        string(g.Status),
		VsBot:         g.VsBot,
		Difficulty:    g.Difficulty,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
	if g.DrawOfferedBy != nil {
		row.DrawOfferedBy = game.SideName(*g.DrawOfferedBy)
	}
	if g.Winner != nil {
		row.Winner = game.SideName(*g.Winner)
	}

	moves := make([]moveRow, len(g.History))
	for i, rec := range g.History {
		moves[i] = moveRow{Number: rec.Number, Notation: rec.Notation, CreatedAt: rec.CreatedAt}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, prefixGame+g.ID, row); err != nil {
			return err
		}
		return setJSON(txn, prefixMoves+g.ID, moves)
	})
	if err != nil {
		logw.Errorf(ctx, "store: save game %s: %v", g.ID, err)
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

// FindGameByID reconstructs a game from its row and move history.
func (s *Store) FindGameByID(ctx context.Context, id string) (*game.Game, error) {
	var row gameRow
	var moves []moveRow

	err := s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, prefixGame+id, &row); err != nil {
			return err
		}
		if err := getJSON(txn, prefixMoves+id, &moves); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game %s: %w", id, err)
	}

	return rebuildGame(row, moves)
}

// DeleteGame removes the game row and its moves (cascade).
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(prefixGame + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixMoves + id))
	})
}

// FindAllGames loads every persisted game.
func (s *Store) FindAllGames(ctx context.Context) ([]*game.Game, error) {
	var rows []gameRow

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var row gameRow
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find all games: %w", err)
	}

	games := make([]*game.Game, 0, len(rows))
	for _, row := range rows {
		var moves []moveRow
		verr := s.db.View(func(txn *badger.Txn) error {
			err := getJSON(txn, prefixMoves+row.ID, &moves)
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		})
		if verr != nil {
			return nil, fmt.Errorf("find all games: %w", verr)
		}
		g, err := rebuildGame(row, moves)
		if err != nil {
			logw.Warningf(ctx, "store: skipping corrupt game %s: %v", row.ID, err)
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// rebuildGame turns persisted rows back into the aggregate.
func rebuildGame(row gameRow, moves []moveRow) (*game.Game, error) {
	pos, err := chess.ParseFEN(row.FEN)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", row.ID, err)
	}

	g := &game.Game{
		ID:         row.ID,
		White:      game.Player{ID: row.WhitePlayerID, UserID: row.WhiteUserID, Side: chess.White},
		Black:      game.Player{ID: row.BlackPlayerID, UserID: row.BlackUserID, Side: chess.Black},
		Position:   pos,
		Status:     game.Status(row.Status),
		VsBot:      row.VsBot,
		Difficulty: row.Difficulty,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}

	if row.DrawOfferedBy != "" {
		side, err := game.ParseSide(row.DrawOfferedBy)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", row.ID, err)
		}
		g.DrawOfferedBy = &side
	}
	if row.Winner != "" {
		side, err := game.ParseSide(row.Winner)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", row.ID, err)
		}
		g.Winner = &side
	}

	g.History = make([]game.MoveRecord, len(moves))
	for i, mv := range moves {
		g.History[i] = game.MoveRecord{Number: mv.Number, Notation: mv.Notation, CreatedAt: mv.CreatedAt}
	}

	return g, nil
}

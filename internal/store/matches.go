package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/seekerror/logw"
)

// Match pairs two users with the game created for them. It is transient:
// deleted once both players have connected, or reclaimed after expiry.
type Match struct {
	GameID        string    `json:"gameId"`
	WhitePlayerID string    `json:"whitePlayerId"`
	BlackPlayerID string    `json:"blackPlayerId"`
	WhiteUserID   string    `json:"whiteUserId"`
	BlackUserID   string    `json:"blackUserId"`
	MatchedAt     time.Time `json:"matchedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Expired reports whether the match's claim window has passed.
func (m *Match) Expired(now time.Time) bool {
	return m.ExpiresAt.Before(now)
}

// Involves reports whether the user is one of the two matched users.
func (m *Match) Involves(userID string) bool {
	return m.WhiteUserID == userID || m.BlackUserID == userID
}

// SaveMatch persists a match keyed by its game id.
func (s *Store) SaveMatch(ctx context.Context, m *Match) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixMatch+m.GameID, m)
	})
	if err != nil {
		logw.Errorf(ctx, "store: save match %s: %v", m.GameID, err)
		return fmt.Errorf("save match %s: %w", m.GameID, err)
	}
	return nil
}

// FindMatchByGame returns the match for a game id.
func (s *Store) FindMatchByGame(ctx context.Context, gameID string) (*Match, error) {
	var m Match
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixMatch+gameID, &m)
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find match %s: %w", gameID, err)
	}
	return &m, nil
}

// FindMatchByUser returns the match involving the given user, if any.
func (s *Store) FindMatchByUser(ctx context.Context, userID string) (*Match, error) {
	matches, err := s.FindAllMatches(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.Involves(userID) {
			return m, nil
		}
	}
	return nil, ErrMatchNotFound
}

// FindAllMatches loads every persisted match.
func (s *Store) FindAllMatches(ctx context.Context) ([]*Match, error) {
	var matches []*Match

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixMatch)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var m Match
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			matches = append(matches, &m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find all matches: %w", err)
	}
	return matches, nil
}

// DeleteMatch removes a match record. Reports ErrMatchNotFound when no
// record exists, so callers can tell a repeat delete from a real one.
func (s *Store) DeleteMatch(ctx context.Context, gameID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixMatch + gameID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrMatchNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// User is a registered account. PasswordHash is a salted SHA-256 digest
// managed by the auth package.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Salt         string    `json:"salt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateUser persists a new user. The username index is written in the
// same transaction, so uniqueness holds under concurrent registration.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(prefixUsername + u.Username)
		if _, err := txn.Get(nameKey); err == nil {
			return ErrUsernameTaken
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := txn.Set(nameKey, []byte(u.ID)); err != nil {
			return err
		}
		return setJSON(txn, prefixUser+u.ID, u)
	})
	if err == ErrUsernameTaken {
		return err
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

// FindUserByID returns the user with the given id.
func (s *Store) FindUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixUser+id, &u)
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &u, nil
}

// FindUserByName resolves a username through the index.
func (s *Store) FindUserByName(ctx context.Context, username string) (*User, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixUsername + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return s.FindUserByID(ctx, id)
}

// UserExists reports whether a user id is registered.
func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	_, err := s.FindUserByID(ctx, id)
	if err == ErrUserNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Package profile keeps the terminal client's local settings in badger.
package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const userKey = "user"

var ErrNoName = errors.New("display name is not set")

type Store struct {
	db *badger.DB
}

func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithValueLogFileSize(1 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenInMemory is used by tests.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNoName
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userKey), []byte(name))
	})
}

// Name returns ErrNoName until SetName has been called.
func (s *Store) Name() (string, error) {
	var name string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKey))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNoName
	}
	if err != nil {
		return "", fmt.Errorf("read profile: %w", err)
	}

	return name, nil
}

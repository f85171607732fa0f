package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "checkpoint:"

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory only.
	InMemory bool

	// TTL expires records that have not been written for TTL. Zero keeps
	// records until they are deleted.
	TTL time.Duration

	// SyncWrites fsyncs every write.
	SyncWrites bool

	Logger *logrus.Logger
}

// BadgerStore keeps records in a badger database so they survive
// restarts.
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	log    *logrus.Logger
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerStore opens or creates the database described by config.
func OpenBadgerStore(config BadgerConfig) (*BadgerStore, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if !config.InMemory && config.Path == "" {
		return nil, errors.New("checkpoint: badger path is required")
	}

	opts := badger.DefaultOptions(config.Path)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = config.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open badger: %w", err)
	}

	config.Logger.WithFields(logrus.Fields{
		"path":      config.Path,
		"in_memory": config.InMemory,
	}).Debug("checkpoint store opened")

	return &BadgerStore{db: db, ttl: config.TTL, log: config.Logger}, nil
}

func storeKey(sessionID string) []byte {
	return []byte(keyPrefix + sessionID)
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(sessionID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("checkpoint: badger get: %w", err)
	}
	return Unmarshal(data)
}

// Set implements Store.
func (s *BadgerStore) Set(ctx context.Context, sessionID string, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}
	data, err := record.Marshal()
	if err != nil {
		return fmt.Errorf("checkpoint: encode record: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(storeKey(sessionID), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("checkpoint: badger set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(sessionID))
	})
	if err != nil {
		return fmt.Errorf("checkpoint: badger delete: %w", err)
	}
	return nil
}

// List returns every stored record, skipping entries that fail to decode.
func (s *BadgerStore) List(ctx context.Context) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var records []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			record, err := Unmarshal(data)
			if err != nil {
				s.log.WithField("key", string(item.Key())).WithError(err).Warn("skipping invalid checkpoint")
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: badger list: %w", err)
	}
	return records, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

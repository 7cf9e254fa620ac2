package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores the snapshot in a Badger directory, using the same
// key layout as LevelDBBackend.
type BadgerBackend struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens or creates the Badger database at path. Badger's own
// log lines go to logger; a nil logger silences them.
func OpenBadger(path string, logger *slog.Logger) (*BadgerBackend, error) {
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create badger directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path).WithSyncWrites(true)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

// Kind implements Backend.
func (b *BadgerBackend) Kind() Kind {
	return KindBadger
}

// Load implements Backend.
func (b *BadgerBackend) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Names: map[uint32]string{}}

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := decodeEntry(&snap, item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return snap, fmt.Errorf("load badger: %w", err)
	}
	return snap, ctx.Err()
}

// Save replaces the database contents with snap.
func (b *BadgerBackend) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := snapshotEntries(snap)

	var stale [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, keep := entries[string(key)]; !keep {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan badger: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("delete badger key: %w", err)
		}
	}
	for key, value := range entries {
		if err := wb.Set([]byte(key), value); err != nil {
			return fmt.Errorf("set badger key: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush badger batch: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

package medialib

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"repeater/internal/domain"
)

var ErrNotFound = errors.New("media entry not found")

const entryPrefix = "media:"

// IndexOptions configures the on-disk entry index.
type IndexOptions struct {
	// Dir is the badger data directory. Required unless InMemory is set.
	Dir string

	// InMemory keeps the index in memory only.
	InMemory bool

	Logger *slog.Logger
}

// Index stores media entries in badger, msgpack-encoded and keyed by ID.
type Index struct {
	db *badger.DB
}

func OpenIndex(opts IndexOptions) (*Index, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("medialib: index dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger: opts.Logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

func (i *Index) Put(entry domain.MediaEntry) error {
	data, err := msgpack.Marshal(entry)
	if err != nil {
		return err
	}
	return i.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.ID), data)
	})
}

func (i *Index) Get(id string) (domain.MediaEntry, error) {
	var entry domain.MediaEntry
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.MediaEntry{}, ErrNotFound
	}
	return entry, err
}

func (i *Index) Delete(id string) error {
	return i.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(id))
	})
}

// All returns every indexed entry, pending ones included, in key order.
func (i *Index) All() ([]domain.MediaEntry, error) {
	var entries []domain.MediaEntry
	err := i.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(entryPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry domain.MediaEntry
			err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &entry)
			})
			if err != nil {
				continue // skip malformed entries
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

func (i *Index) Close() error {
	return i.db.Close()
}

func entryKey(id string) []byte {
	return []byte(entryPrefix + id)
}

// badgerLogger routes badger warnings and errors to slog and drops the rest.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) log() *slog.Logger {
	if l.logger == nil {
		return slog.Default()
	}
	return l.logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.log().Error("badger", "detail", strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.log().Warn("badger", "detail", strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

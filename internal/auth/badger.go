package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

var tokenKey = []byte("auth:token")

// BadgerStore keeps the token in a BadgerDB directory so it survives restarts.
type BadgerStore struct {
	db *badger.DB
}

// BadgerOptions configures the store. Dir is required unless InMemory is set,
// in which case it is ignored.
type BadgerOptions struct {
	Dir      string
	InMemory bool
}

// OpenBadger opens (or creates) the token database.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("auth: BadgerOptions.Dir is required for on-disk mode")
	}
	dir := opts.Dir
	if opts.InMemory {
		// badger refuses a directory in diskless mode
		dir = ""
	}
	dbOpts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Load(_ context.Context) (Record, error) {
	var rec Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, ErrNoToken
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load token: %w", err)
	}
	return rec, nil
}

func (b *BadgerStore) Save(_ context.Context, token string) error {
	if token == "" {
		return errors.New("auth: empty token")
	}
	val, err := msgpack.Marshal(Record{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tokenKey, val)
	})
}

func (b *BadgerStore) Clear(_ context.Context) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tokenKey)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger warnings and errors to logrus and drops the rest.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{}) {
	logrus.WithField("component", "badger").Errorf(f, v...)
}

func (badgerLogger) Warningf(f string, v ...interface{}) {
	logrus.WithField("component", "badger").Warnf(f, v...)
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

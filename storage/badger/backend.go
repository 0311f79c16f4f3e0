package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/studyhall/storage"
)

// Sequences hand out IDs in leases of this size. Unused IDs in a lease are
// lost on close, which is fine for turn IDs.
const sequenceBandwidth = 100

// Backend wraps a BadgerDB instance shared by the turn and course
// repositories.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogAdapter forwards badger's internal logging to slog.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(msg string, items ...any) {
	a.logger.Error(fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Warningf(msg string, items ...any) {
	a.logger.Warn(fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Infof(msg string, items ...any) {
	a.logger.Info(fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Debugf(msg string, items ...any) {
	a.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens the database at filePath, creating the directory when it
// does not exist. With inMemory set, filePath is ignored and nothing is
// written to disk.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	logger := slog.Default().With("component", "badger-backend")

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDataDir(filePath); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &slogAdapter{logger: logger}
	// Turn and course values are small mus-encoded records; compression
	// costs more than it saves.
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", filePath, err)
	}

	return &Backend{db: db, logger: logger}, nil
}

func ensureDataDir(filePath string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return os.MkdirAll(filePath, 0755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filePath)
	}
	return nil
}

// Close closes the database. Safe to call once; repositories using this
// backend must be closed first.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn inside a transaction, read-write when isWrite is set.
// fn must call Commit itself for writes; the transaction is discarded on
// the way out regardless.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns the named monotonic ID sequence.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	if b.db.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return b.db.GetSequence([]byte(name), sequenceBandwidth)
}

// WithTransaction runs fn inside a read-write transaction and commits when
// fn succeeds. Implements the storage.Repository transaction contract.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

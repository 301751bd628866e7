package bolt

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"inkwell/internal/domain/repositories"
)

var (
	bucketNodes    = []byte("nodes")
	bucketContents = []byte("contents")
	bucketVersions = []byte("versions")
)

// Store is the embedded single-file durable store. It implements the same
// repository interfaces as the postgres store and backs single-binary
// deployments and tests.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the bolt database at dbPath and initializes buckets.
func New(dbPath string) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	store := &Store{db: db}
	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize buckets: %w", err)
	}

	return store, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketNodes, bucketContents, bucketVersions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// txContextKey carries an open bolt transaction through a context so
// repository calls inside ExecTx share one atomic write.
type txContextKey struct{}

// ExecTx runs fn inside a single bolt write transaction. Nested calls reuse
// the transaction already present in the context.
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *bbolt.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*bbolt.Tx)
	return tx
}

// update runs fn in the context's transaction if one is open, otherwise in a
// fresh write transaction.
func (s *Store) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(tx)
	}
	return s.db.Update(fn)
}

// view runs fn in the context's transaction if one is open, otherwise in a
// read transaction.
func (s *Store) view(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(tx)
	}
	return s.db.View(fn)
}

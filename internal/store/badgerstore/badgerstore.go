// Package badgerstore persists result snapshots in a BadgerDB directory, one
// key per root word, so large stores can be checkpointed without rewriting a
// single monolithic file.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
)

var (
	resultPrefix = []byte("r/")
	signatureKey = []byte("m/signature")
)

type Snapshotter struct {
	db *badger.DB
}

// Open opens (or creates) the database for signature under dataDir.
func Open(dataDir, signature string) (*Snapshotter, error) {
	opts := badger.DefaultOptions(filepath.Join(dataDir, store.SnapshotName(signature)+".badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Snapshotter{db: db}, nil
}

func (s *Snapshotter) Close() error {
	return s.db.Close()
}

func resultKey(word string) []byte {
	return append(append([]byte{}, resultPrefix...), word...)
}

// WriteSnapshot upserts every entry. The store never removes words, so
// entries absent from snap cannot exist in the database.
func (s *Snapshotter) WriteSnapshot(ctx context.Context, snap store.Snapshot) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	if err := wb.Set(signatureKey, []byte(snap.Signature)); err != nil {
		return fmt.Errorf("writing signature: %w", err)
	}
	for _, e := range snap.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("marshaling result for %q: %w", e.Word, err)
		}
		if err := wb.Set(resultKey(e.Word), data); err != nil {
			return fmt.Errorf("writing result for %q: %w", e.Word, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing batch: %w", err)
	}
	return s.db.Sync()
}

func (s *Snapshotter) ReadSnapshot(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(signatureKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNoSnapshot
		}
		if err != nil {
			return fmt.Errorf("reading signature: %w", err)
		}
		sig, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("reading signature: %w", err)
		}
		snap.Signature = string(sig)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = resultPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			word := string(item.Key()[len(resultPrefix):])
			var res decompose.Result
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &res)
			}); err != nil {
				return fmt.Errorf("parsing result for %q: %w", word, err)
			}
			snap.Entries = append(snap.Entries, store.Entry{Word: word, Result: res})
		}
		return nil
	})
	if err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// Get reads a single result without loading the snapshot.
func (s *Snapshotter) Get(word string) (decompose.Result, bool, error) {
	var res decompose.Result
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(word))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading result for %q: %w", word, err)
	}
	return res, true, nil
}

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// slotsBucket is the single bucket holding every named slot.
var slotsBucket = []byte("slots")

// BoltKV implements KV on a bbolt database file. Every Put runs in its own
// write transaction, which gives the store its per-operation atomicity: the
// slot either holds the new value or the prior one, never a torn write.
type BoltKV struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bbolt file at path and ensures the
// slots bucket exists. The parent directory is created when missing.
func OpenBolt(path string) (*BoltKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(slotsBucket)
		return createErr
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating slots bucket: %w", err)
	}

	return &BoltKV{db: db}, nil
}

// Get returns the value stored in slot, or nil when absent.
func (b *BoltKV) Get(slot string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(slotsBucket)
		if bucket == nil {
			return nil
		}
		if value := bucket.Get([]byte(slot)); value != nil {
			out = make([]byte, len(value))
			copy(out, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put replaces the value stored in slot.
func (b *BoltKV) Put(slot string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(slotsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(slot), value)
	})
}

// Close releases the underlying database file.
func (b *BoltKV) Close() error {
	return b.db.Close()
}

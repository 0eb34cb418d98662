package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var slotsBucket = []byte("conversation_slots")

// BoltKV keeps slots in one bucket of a bbolt file.
type BoltKV struct {
	db *bolt.DB
}

func NewBoltKV(path string) (*BoltKV, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create bolt directory")
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bolt file")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(slotsBucket)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create bucket")
	}
	return &BoltKV{db: db}, nil
}

func (b *BoltKV) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(slotsBucket)
		if bk == nil {
			return nil
		}
		if v := bk.Get([]byte(key)); v != nil {
			// v is only valid inside the transaction
			value, ok = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read slot %s", key)
	}
	return value, ok, nil
}

func (b *BoltKV) Set(_ context.Context, key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk, e := tx.CreateBucketIfNotExists(slotsBucket)
		if e != nil {
			return e
		}
		return bk.Put([]byte(key), []byte(value))
	})
	return errors.Wrapf(err, "failed to write slot %s", key)
}

func (b *BoltKV) Close() error {
	return b.db.Close()
}

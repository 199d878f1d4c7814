package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

const sessionBucket = "session"

// BoltKV persists values in a bbolt database. It is the durable store used
// when several processes on one machine share the session record.
type BoltKV struct {
	db *bbolt.DB
}

var _ KV = (*BoltKV)(nil)

func NewBoltKV(dbPath string) (*BoltKV, error) {
	if dbPath == "" {
		return nil, errors.New("[NewBoltKV] dbPath is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewBoltKV] create database directory")
	}
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "[NewBoltKV] open bbolt db at %s", dbPath)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, berr := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return berr
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[NewBoltKV] ensure session bucket")
	}
	return &BoltKV{db: db}, nil
}

func (b *BoltKV) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket([]byte(sessionBucket)).Get([]byte(key))
		if value != nil {
			out = make([]byte, len(value))
			copy(out, value)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[BoltKV.Get] read %q", key)
	}
	return out, nil
}

func (b *BoltKV) Put(key string, value []byte) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte(key), value)
	})
	return errors.Wrapf(err, "[BoltKV.Put] write %q", key)
}

func (b *BoltKV) Delete(key string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Delete([]byte(key))
	})
	return errors.Wrapf(err, "[BoltKV.Delete] remove %q", key)
}

func (b *BoltKV) Close() error {
	return b.db.Close()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"account-dispenser/internal/dispenser"
)

var (
	boltBucketName  = []byte("DISPENSER")
	boltDocumentKey = []byte("document")

	errMissingBucket = errors.New("dispenser bucket is missing")
)

// Bolt keeps the document under a single key. bbolt allows one writer at a time,
// which serializes Update calls across the process.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		path = "data.db"
	}

	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucketName)
		if err != nil {
			return err
		}
		if b.Get(boltDocumentKey) != nil {
			return nil
		}

		encoded, err := dispenser.EncodeDocument(dispenser.NewDocument())
		if err != nil {
			return err
		}
		return b.Put(boltDocumentKey, encoded)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bolt bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) do(f func(bucket *bolt.Bucket) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucketName)
		if bucket == nil {
			return errMissingBucket
		}
		return f(bucket)
	})
}

func (b *Bolt) View(_ context.Context, fn func(doc *dispenser.Document) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucketName)
		if bucket == nil {
			return errMissingBucket
		}
		return view(bucket.Get(boltDocumentKey), fn)
	})
}

func (b *Bolt) Update(_ context.Context, fn func(doc *dispenser.Document) error) error {
	return b.do(func(bucket *bolt.Bucket) error {
		encoded, err := apply(bucket.Get(boltDocumentKey), fn)
		if err != nil {
			return err
		}
		return bucket.Put(boltDocumentKey, encoded)
	})
}

func (b *Bolt) Ping(context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(boltBucketName) == nil {
			return errMissingBucket
		}
		return nil
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

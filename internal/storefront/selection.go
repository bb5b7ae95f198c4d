package storefront

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var selectionBucket = []byte("variant_selections")

// SelectionStore remembers which variant a storefront session picked
// for a product, so the active variant survives re-sorts and reloads.
// Stale selections are harmless: the resolver falls back to the first
// sorted variant when the stored id no longer exists.
type SelectionStore struct {
	db *bolt.DB
}

// OpenSelectionStore opens (or creates) the bbolt file at path.
func OpenSelectionStore(path string) (*SelectionStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(selectionBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SelectionStore{db: db}, nil
}

func selectionKey(sessionID string, productID int64) []byte {
	return []byte(fmt.Sprintf("%s/%d", sessionID, productID))
}

// Get returns the stored variant id for the session and product, or 0.
func (s *SelectionStore) Get(sessionID string, productID int64) int64 {
	var variantID int64
	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(selectionBucket).Get(selectionKey(sessionID, productID))
		if len(v) == 8 {
			variantID = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return variantID
}

// Set stores the session's variant pick for a product.
func (s *SelectionStore) Set(sessionID string, productID, variantID int64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(variantID))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(selectionBucket).Put(selectionKey(sessionID, productID), buf)
	})
}

// Close releases the underlying bbolt file.
func (s *SelectionStore) Close() error {
	return s.db.Close()
}

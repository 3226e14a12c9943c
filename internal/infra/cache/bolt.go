// Package cache is a bbolt-backed store for serialized model responses
// with per-entry expiry.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const bucketResponses = "model_responses"

// Store wraps a bbolt database. Keys are content-derived, so concurrent
// runs only race on identical content; last writer wins and the values are
// deterministic-enough model output, not safety-critical state.
type Store struct {
	db *bbolt.DB
}

type entry struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Open opens (or creates) the database at path and initializes the bucket.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketResponses))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the payload stored under key, or ok=false on a miss or an
// expired entry. Expired entries are left in place and overwritten by the
// next Set.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var payload []byte
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketResponses)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		if time.Now().After(e.ExpiresAt) {
			return nil
		}
		payload = append([]byte(nil), e.Payload...)
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return payload, ok, nil
}

// Set stores payload under key with the given lifetime.
func (s *Store) Set(key string, payload []byte, ttl time.Duration) error {
	raw, err := json.Marshal(entry{
		ExpiresAt: time.Now().Add(ttl),
		Payload:   json.RawMessage(payload),
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketResponses)).Put([]byte(key), raw)
	})
}

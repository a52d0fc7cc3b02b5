package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/briefwire/briefwire/internal/domain"
)

var (
	bucketSeen    = []byte("seen_urls")
	bucketDigests = []byte("digests")
)

// Store persists cross-run state in an embedded bbolt database: URLs that
// already appeared in a sent digest, and an archive of generated digests.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures the buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSeen, bucketDigests} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// FilterUnseen returns the articles whose URLs have not been marked seen.
func (s *Store) FilterUnseen(articles []domain.Article) ([]domain.Article, error) {
	out := make([]domain.Article, 0, len(articles))

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSeen)
		for _, a := range articles {
			if b.Get([]byte(a.URL)) == nil {
				out = append(out, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filter unseen: %w", err)
	}
	return out, nil
}

// MarkSeen records the article URLs with the given timestamp.
func (s *Store) MarkSeen(articles []domain.Article, at time.Time) error {
	stamp := []byte(at.UTC().Format(time.RFC3339))

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSeen)
		for _, a := range articles {
			if a.URL == "" {
				continue
			}
			if err := b.Put([]byte(a.URL), stamp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// PruneSeen deletes seen entries recorded before the cutoff and reports how
// many were removed. Entries with unparsable stamps are removed as well.
func (s *Store) PruneSeen(cutoff time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSeen)
		c := b.Cursor()

		var stale [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			stamp, err := time.Parse(time.RFC3339, string(v))
			if err != nil || stamp.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune seen: %w", err)
	}
	return removed, nil
}

// ArchiveDigest stores the digest JSON keyed by run id.
func (s *Store) ArchiveDigest(d domain.Digest) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDigests).Put([]byte(d.RunID), payload)
	})
	if err != nil {
		return fmt.Errorf("archive digest: %w", err)
	}
	return nil
}

// Digest loads an archived digest by run id.
func (s *Store) Digest(runID string) (domain.Digest, bool, error) {
	var (
		d     domain.Digest
		found bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDigests).Get([]byte(runID))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &d)
	})
	if err != nil {
		return domain.Digest{}, false, fmt.Errorf("load digest %s: %w", runID, err)
	}
	return d, found, nil
}

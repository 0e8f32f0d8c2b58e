package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"freshpoint-watch/feature/product"
)

const catalogBucket = "catalogs"

// ErrStoreClosed is returned by store operations after Close.
var ErrStoreClosed = errors.New("catalog store is closed")

// Config holds the catalog store configuration loaded from the environment.
type Config struct {
	// Path points to the database file holding the persisted catalogs.
	Path string `mapstructure:"path" default:"freshpoint.db"`
}

// Store persists the last known catalog of each watched location, so that
// change detection survives a restart without reporting the whole page as
// newly added.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	closed bool
}

// Open opens or creates the catalog database at the configured path.
func Open(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := bolt.Open(config.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(catalogBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare catalog store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file. Further operations fail with
// ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// SaveCatalog persists the catalog under its location identity, replacing
// any previously stored catalog of that location.
func (s *Store) SaveCatalog(catalog *product.Catalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("failed to encode catalog %d: %w", catalog.LocationID(), err)
	}
	return s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogBucket))
		if err := bucket.Put(locationKey(catalog.LocationID()), data); err != nil {
			return fmt.Errorf("failed to store catalog %d: %w", catalog.LocationID(), err)
		}
		return nil
	})
}

// LoadCatalog restores the stored catalog of the given location. The second
// return value reports whether a catalog was found.
func (s *Store) LoadCatalog(locationID int) (*product.Catalog, bool, error) {
	var data []byte
	err := s.view(func(tx *bolt.Tx) error {
		if value := tx.Bucket([]byte(catalogBucket)).Get(locationKey(locationID)); value != nil {
			data = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}
	var catalog product.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, false, fmt.Errorf("failed to decode catalog %d: %w", locationID, err)
	}
	return &catalog, true, nil
}

// DeleteCatalog removes the stored catalog of the given location.
func (s *Store) DeleteCatalog(locationID int) error {
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(catalogBucket)).Delete(locationKey(locationID))
	})
}

// Locations returns the identities of all locations with a stored catalog,
// in ascending key order.
func (s *Store) Locations() ([]int, error) {
	var locations []int
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(catalogBucket)).ForEach(func(key, _ []byte) error {
			id, err := strconv.Atoi(string(key))
			if err != nil {
				return fmt.Errorf("failed to decode location key %q: %w", key, err)
			}
			locations = append(locations, id)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return locations, nil
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}

func locationKey(locationID int) []byte {
	return []byte(strconv.Itoa(locationID))
}

package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/kalsim-labs/kalsim/core"
)

// ArtifactStore persists finished run artifacts keyed by run id. Artifacts
// round-trip: loading a saved artifact reproduces an equivalent summary.
type ArtifactStore interface {
	SaveRunArtifact(artifact core.RunArtifact) error
	LoadRunArtifact(runID string) (core.RunArtifact, error)
	LoadLatestArtifact() (core.RunArtifact, error)
	ListRunIDs() ([]string, error)
	Close() error
}

// Config controls the underlying BadgerDB instance.
type Config struct {
	DataDir        string
	DisableLogging bool
	InMemory       bool
	SyncWrites     bool
	GCInterval     time.Duration // 0 to disable
}

// DefaultConfig returns the production storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:        dataDir,
		DisableLogging: true,
		SyncWrites:     true,
		GCInterval:     time.Hour,
	}
}

const (
	artifactPrefix = "run/artifact/"
	latestKey      = "run/latest"
)

// DBStorage is a BadgerDB-backed ArtifactStore.
type DBStorage struct {
	db     *badger.DB
	mu     sync.Mutex
	config Config
}

var (
	// One instance per data dir.
	instances = make(map[string]*DBStorage)
	mu        sync.RWMutex
)

// GetDBStorage returns the storage instance for the given data dir.
func GetDBStorage(dataDir string) (*DBStorage, error) {
	return GetDBStorageWithConfig(DefaultConfig(dataDir))
}

// GetDBStorageWithConfig returns an instance with custom configuration.
func GetDBStorageWithConfig(config Config) (*DBStorage, error) {
	mu.RLock()
	instance, exists := instances[config.DataDir]
	mu.RUnlock()
	if exists {
		return instance, nil
	}

	mu.Lock()
	defer mu.Unlock()

	// Check again in case another goroutine created it while we were waiting.
	if instance, exists = instances[config.DataDir]; exists {
		return instance, nil
	}

	instance, err := newDBStorage(filepath.Join(config.DataDir, "badgerdb"), config)
	if err != nil {
		return nil, err
	}
	instances[config.DataDir] = instance

	if config.GCInterval > 0 {
		go instance.startGCRoutine(config.GCInterval)
	}

	return instance, nil
}

func newDBStorage(dbPath string, config Config) (*DBStorage, error) {
	opts := badger.DefaultOptions(dbPath)
	if config.DisableLogging {
		opts.Logger = nil
	}
	opts.InMemory = config.InMemory
	opts.SyncWrites = config.SyncWrites
	if config.InMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %v", err)
	}

	return &DBStorage{db: db, config: config}, nil
}

func (s *DBStorage) startGCRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := s.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
			log.Printf("BadgerDB GC failed: %v", err)
		}
	}
}

// SaveRunArtifact serializes and stores the artifact, and marks it latest.
func (s *DBStorage) SaveRunArtifact(artifact core.RunArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to encode run artifact: %v", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(artifactPrefix+artifact.RunID), data); err != nil {
			return err
		}
		return txn.Set([]byte(latestKey), []byte(artifact.RunID))
	})
}

// LoadRunArtifact fetches and decodes the artifact for a run id.
func (s *DBStorage) LoadRunArtifact(runID string) (core.RunArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var artifact core.RunArtifact
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(artifactPrefix + runID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return core.ErrNoResults
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &artifact)
		})
	})
	return artifact, err
}

// LoadLatestArtifact fetches the most recently saved artifact.
func (s *DBStorage) LoadLatestArtifact() (core.RunArtifact, error) {
	s.mu.Lock()
	runID := ""
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return core.ErrNoResults
			}
			return err
		}
		return item.Value(func(val []byte) error {
			runID = string(val)
			return nil
		})
	})
	s.mu.Unlock()
	if err != nil {
		return core.RunArtifact{}, err
	}
	return s.LoadRunArtifact(runID)
}

// ListRunIDs returns every persisted run id.
func (s *DBStorage) ListRunIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(artifactPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

// Close closes the database and releases the instance slot.
func (s *DBStorage) Close() error {
	mu.Lock()
	delete(instances, s.config.DataDir)
	mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

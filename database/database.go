package database

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"btreestore/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Database is a registry of named stores. Each store is guarded by its own
// mutex so that at most one caller mutates it at a time.
type Database struct {
	lock   sync.RWMutex
	stores map[string]*handle
	log    logger.Logger
}

type handle struct {
	mu    sync.Mutex
	store *Store
}

// StoreSummary describes a registered store.
type StoreSummary struct {
	Name      string `json:"name"`
	Branching uint16 `json:"branching"`
	Workers   uint8  `json:"workers"`
	Entries   int    `json:"entries"`
	Nodes     int    `json:"nodes"`
}

func NewDatabase() *Database {
	return &Database{
		stores: make(map[string]*handle),
		log:    logger.Sugar.WithServiceName("database"),
	}
}

// NewStoreID returns a fresh store name of the form st_<8 hex digits>.
func NewStoreID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate uuid")
	}
	return fmt.Sprintf("st_%s", strings.Split(id.String(), "-")[0]), nil
}

// CreateStore registers a new store under name, or under a generated name
// when name is empty, and returns the name used.
func (db *Database) CreateStore(name string, branching uint16, workers uint8) (string, error) {
	if name == "" {
		generated, err := NewStoreID()
		if err != nil {
			return "", err
		}
		name = generated
	}

	db.lock.Lock()
	defer db.lock.Unlock()

	if _, exists := db.stores[name]; exists {
		return "", errors.Wrapf(ErrStoreExists, "%q", name)
	}

	store, err := NewStore(branching, workers)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create store %q", name)
	}
	db.stores[name] = &handle{store: store}

	db.log.Infow("store registered", "name", name)
	return name, nil
}

// WithStore runs fn with exclusive access to the named store.
func (db *Database) WithStore(name string, fn func(*Store) error) error {
	db.lock.RLock()
	h, ok := db.stores[name]
	db.lock.RUnlock()

	if !ok {
		return errors.Wrapf(ErrStoreNotFound, "%q", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store.tree == nil {
		return errors.Wrapf(ErrStoreNotFound, "%q", name)
	}
	return fn(h.store)
}

// DropStore closes the named store and removes it from the registry.
func (db *Database) DropStore(name string) error {
	db.lock.Lock()
	h, ok := db.stores[name]
	delete(db.stores, name)
	db.lock.Unlock()

	if !ok {
		return errors.Wrapf(ErrStoreNotFound, "%q", name)
	}

	h.mu.Lock()
	h.store.Close()
	h.mu.Unlock()

	db.log.Infow("store dropped", "name", name)
	return nil
}

// ListStores summarises every store, ordered by name.
func (db *Database) ListStores() []StoreSummary {
	db.lock.RLock()
	names := make([]string, 0, len(db.stores))
	handles := make(map[string]*handle, len(db.stores))
	for name, h := range db.stores {
		names = append(names, name)
		handles[name] = h
	}
	db.lock.RUnlock()

	sort.Strings(names)

	summaries := make([]StoreSummary, 0, len(names))
	for _, name := range names {
		h := handles[name]
		h.mu.Lock()
		summaries = append(summaries, StoreSummary{
			Name:      name,
			Branching: h.store.Branching(),
			Workers:   h.store.Workers(),
			Entries:   h.store.Len(),
			Nodes:     h.store.NodeCount(),
		})
		h.mu.Unlock()
	}

	return summaries
}

// Close closes every store.
func (db *Database) Close() {
	db.lock.Lock()
	defer db.lock.Unlock()

	for name, h := range db.stores {
		h.mu.Lock()
		h.store.Close()
		h.mu.Unlock()
		delete(db.stores, name)
	}
}

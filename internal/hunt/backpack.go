package hunt

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"
)

// Item is a collected clue artifact. TS is the collection time in Unix
// milliseconds.
type Item struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	ClueText string `json:"clue_text"`
	VideoURL string `json:"video_url"`
	ThumbURL string `json:"thumb_url"`
	TS       int64  `json:"ts"`
}

// CollectedAt returns TS as a time.
func (it Item) CollectedAt() time.Time {
	return time.UnixMilli(it.TS)
}

// Storage is a durable key/value store holding whole ledger documents.
// Get returns ErrNoValue for keys that were never written. Deleting a
// missing key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Ledger is the player's backpack: append-only, at most one item per id.
// Writes are read-modify-write of the whole list; a ledger has one writer.
type Ledger struct {
	store Storage
	key   string
}

func NewLedger(store Storage, key string) *Ledger {
	return &Ledger{store: store, key: key}
}

// LoadAll returns the stored items ascending by collection time. Missing or
// corrupt state reads as an empty backpack so gameplay is never blocked by
// it; only storage failures are returned.
func (l *Ledger) LoadAll(ctx context.Context) ([]Item, error) {
	data, err := l.store.Get(ctx, l.key)
	if errors.Is(err, ErrNoValue) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return []Item{}, nil
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		switch {
		case a.TS < b.TS:
			return -1
		case a.TS > b.TS:
			return 1
		}
		return 0
	})
	return items, nil
}

// Add appends it unless an item with the same id is already stored.
func (l *Ledger) Add(ctx context.Context, it Item) error {
	items, err := l.LoadAll(ctx)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(items, func(x Item) bool { return x.ID == it.ID }) {
		return nil
	}
	return l.save(ctx, append(items, it))
}

// Clear discards every item. Only called when a mission starts.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.save(ctx, []Item{})
}

// Drop removes the ledger document itself.
func (l *Ledger) Drop(ctx context.Context) error {
	return l.store.Delete(ctx, l.key)
}

func (l *Ledger) save(ctx context.Context, items []Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, l.key, data)
}

// MemoryStorage is a Storage held in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNoValue
	}
	return slices.Clone(v), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = slices.Clone(value)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/priy-am/url-shortener-service/internal/model"
)

// MemoryMappingStore is an in-memory MappingStore used for development and
// tests. It keeps insertion order so ListAll can return newest first without
// a sort. The map and order slice are guarded by one RWMutex; every method
// returns copies, never pointers into the map.
type MemoryMappingStore struct {
	mu    sync.RWMutex
	urls  map[string]*model.UrlMapping
	order []string
}

func NewMemoryMappingStore() *MemoryMappingStore {
	return &MemoryMappingStore{
		urls: make(map[string]*model.UrlMapping),
	}
}

func (r *MemoryMappingStore) InsertIfAbsent(ctx context.Context, code, longURL string) (*model.UrlMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[code]; exists {
		return nil, ErrDuplicateCode
	}

	mapping := &model.UrlMapping{
		Code:      code,
		LongURL:   longURL,
		Clicks:    0,
		CreatedAt: time.Now().UTC(),
	}
	r.urls[code] = mapping
	r.order = append(r.order, code)

	out := *mapping
	return &out, nil
}

func (r *MemoryMappingStore) FindByCode(ctx context.Context, code string) (*model.UrlMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	mapping, exists := r.urls[code]
	if !exists {
		return nil, ErrURLNotFound
	}

	out := *mapping
	return &out, nil
}

func (r *MemoryMappingStore) IncrementClicks(ctx context.Context, code string) (*model.UrlMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	mapping, exists := r.urls[code]
	if !exists {
		return nil, ErrURLNotFound
	}

	mapping.Clicks++
	out := *mapping
	return &out, nil
}

func (r *MemoryMappingStore) ListAll(ctx context.Context) ([]model.UrlMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	mappings := make([]model.UrlMapping, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		mappings = append(mappings, *r.urls[r.order[i]])
	}
	return mappings, nil
}

func (r *MemoryMappingStore) CodeExists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.urls[code]
	return exists, nil
}

func (r *MemoryMappingStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

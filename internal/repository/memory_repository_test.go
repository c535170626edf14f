package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InsertAndFind(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	mapping, err := store.InsertIfAbsent(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc1234", mapping.Code)
	assert.Equal(t, "https://example.com", mapping.LongURL)
	assert.Equal(t, int64(0), mapping.Clicks)
	assert.False(t, mapping.CreatedAt.IsZero())

	found, err := store.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, mapping.Code, found.Code)
	assert.Equal(t, mapping.LongURL, found.LongURL)
}

func TestMemoryStore_InsertDuplicate(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	_, err := store.InsertIfAbsent(ctx, "abc1234", "https://example.com/1")
	require.NoError(t, err)

	_, err = store.InsertIfAbsent(ctx, "abc1234", "https://example.com/2")
	assert.ErrorIs(t, err, ErrDuplicateCode)

	// The original mapping is untouched.
	found, err := store.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/1", found.LongURL)
}

func TestMemoryStore_FindNotFound(t *testing.T) {
	store := NewMemoryMappingStore()

	_, err := store.FindByCode(context.Background(), "doesnotexist")
	assert.ErrorIs(t, err, ErrURLNotFound)
}

func TestMemoryStore_IncrementClicks(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	_, err := store.InsertIfAbsent(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	first, err := store.IncrementClicks(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Clicks)

	second, err := store.IncrementClicks(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Clicks)
}

func TestMemoryStore_IncrementNotFound(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	_, err := store.InsertIfAbsent(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	_, err = store.IncrementClicks(ctx, "doesnotexist")
	assert.ErrorIs(t, err, ErrURLNotFound)

	// A failed resolve mutates nothing.
	mappings, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, int64(0), mappings[0].Clicks)
}

func TestMemoryStore_ListAllNewestFirst(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	codes := []string{"first12", "second1", "third12"}
	for _, code := range codes {
		_, err := store.InsertIfAbsent(ctx, code, "https://example.com/"+code)
		require.NoError(t, err)
	}

	mappings, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 3)
	assert.Equal(t, "third12", mappings[0].Code)
	assert.Equal(t, "second1", mappings[1].Code)
	assert.Equal(t, "first12", mappings[2].Code)
}

func TestMemoryStore_CodeExists(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	exists, err := store.CodeExists(ctx, "abc1234")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.InsertIfAbsent(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	exists, err = store.CodeExists(ctx, "abc1234")
	require.NoError(t, err)
	assert.True(t, exists)
}

// M concurrent resolutions of one code must all be applied: the final
// counter is exactly M, with no lost updates.
func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	_, err := store.InsertIfAbsent(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, incErr := store.IncrementClicks(ctx, "abc1234")
			assert.NoError(t, incErr)
		}()
	}
	wg.Wait()

	mapping, err := store.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), mapping.Clicks)
}

// Two concurrent inserts for the same code: exactly one wins.
func TestMemoryStore_ConcurrentInsertSameCode(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	const racers = 50
	var wg sync.WaitGroup
	wg.Add(racers)

	var mu sync.Mutex
	successes := 0

	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.InsertIfAbsent(ctx, "contested", "https://example.com"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	mappings, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, mappings, 1)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryMappingStore()
	ctx := context.Background()

	_, err := store.InsertIfAbsent(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	found, err := store.FindByCode(ctx, "abc1234")
	require.NoError(t, err)

	// Mutating the returned value must not bypass IncrementClicks.
	found.Clicks = 999

	fresh, err := store.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.Clicks)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryMappingStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.InsertIfAbsent(ctx, "abc1234", "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.IncrementClicks(ctx, "abc1234")
	assert.ErrorIs(t, err, context.Canceled)
}

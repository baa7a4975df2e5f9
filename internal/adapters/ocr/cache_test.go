package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache(10)

	cache.Set("abc", `{"items": []}`)

	value, found := cache.Get("abc")
	assert.True(t, found)
	assert.Equal(t, `{"items": []}`, value)

	value, found = cache.Get("def")
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestMemoryCache_StartsOverWhenFull(t *testing.T) {
	cache := NewMemoryCache(2)

	cache.Set("a", "1")
	cache.Set("b", "2")
	cache.Set("b", "2 again")
	assert.Equal(t, 2, cache.Size())

	cache.Set("c", "3")
	assert.Equal(t, 1, cache.Size())
	_, found := cache.Get("a")
	assert.False(t, found)

	cache.Clear()
	assert.Zero(t, cache.Size())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache(0)

	var wg sync.WaitGroup
	numGoroutines := 100
	wg.Add(numGoroutines * 2)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			cache.Set(fmt.Sprintf("key_%d", id), "value")
		}(i)
		go func(id int) {
			defer wg.Done()
			cache.Get(fmt.Sprintf("key_%d", id))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, numGoroutines, cache.Size())
}

type countingExtractor struct {
	calls  int
	err    error
	silent bool
}

func (c *countingExtractor) Extract(_ context.Context, image []byte, _ string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if c.silent {
		return "", nil
	}
	return fmt.Sprintf("answer for %d bytes", len(image)), nil
}

func TestCachingExtractor(t *testing.T) {
	inner := &countingExtractor{}
	ext := NewCachingExtractor(inner, 8, nil)
	ctx := context.Background()

	first, err := ext.Extract(ctx, []byte("same photo"), "image/jpeg")
	require.NoError(t, err)
	second, err := ext.Extract(ctx, []byte("same photo"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	_, err = ext.Extract(ctx, []byte("other photo"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachingExtractor_DoesNotCacheFailures(t *testing.T) {
	inner := &countingExtractor{err: errors.New("overloaded")}
	ext := NewCachingExtractor(inner, 8, nil)

	_, err := ext.Extract(context.Background(), []byte("photo"), "image/jpeg")
	assert.Error(t, err)
	_, err = ext.Extract(context.Background(), []byte("photo"), "image/jpeg")
	assert.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, ext.cache.Size())
}

func TestCachingExtractor_DoesNotCacheEmptyAnswers(t *testing.T) {
	inner := &countingExtractor{silent: true}
	ext := NewCachingExtractor(inner, 8, nil)

	for i := 0; i < 2; i++ {
		text, err := ext.Extract(context.Background(), []byte("blurry"), "image/jpeg")
		require.NoError(t, err)
		assert.Empty(t, text)
	}

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, ext.cache.Size())
}

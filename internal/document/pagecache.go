package document

import (
	"context"
	"slices"
	"sync"
)

type pageCacheKey struct{}

type pageEntry struct {
	done  chan struct{}
	pages []Page
	err   error
}

// pageCache holds the pages read while one document is being processed.
type pageCache struct {
	mu      sync.Mutex
	entries map[string]*pageEntry
}

// WithPageCache returns a context under which PageReader.Pages reads each
// document once; concurrent callers wait for the first read and share it.
// The cache lives as long as the context, so scope it to a single document.
func WithPageCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, pageCacheKey{}, &pageCache{entries: make(map[string]*pageEntry)})
}

func pageCacheFrom(ctx context.Context) *pageCache {
	c, _ := ctx.Value(pageCacheKey{}).(*pageCache)
	return c
}

func (c *pageCache) load(ctx context.Context, key string, read func() ([]Page, error)) ([]Page, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &pageEntry{done: make(chan struct{})}
		c.entries[key] = e
		c.mu.Unlock()

		e.pages, e.err = read()
		close(e.done)
		return slices.Clone(e.pages), e.err
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return slices.Clone(e.pages), e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package imaging

import (
	"context"
	"image"
	"sync"
)

// ImageCache combines a Fetcher with thread-safe caching of decoded images,
// keyed by content address. The detection worker and the overlay renderer
// both need the decoded source image; the cache makes the second access free
// instead of refetching and redecoding the blob.
//
// ImageCache is safe for concurrent use by multiple goroutines. Content
// addresses are immutable by construction, so entries never go stale; they
// stay in memory until Evict or Clear is called.
type ImageCache struct {
	fetcher Fetcher

	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates a cache in front of the given fetcher.
func NewImageCache(fetcher Fetcher) *ImageCache {
	return &ImageCache{
		fetcher: fetcher,
		images:  make(map[string]image.Image),
	}
}

// Load returns the decoded image for a content address, fetching and
// decoding it on first use.
//
// Returns an error wrapping ErrNotFetched when the blob does not exist and
// one wrapping ErrDecode when the blob is not a valid image. Only
// successfully decoded images are cached, so a transient fetch failure does
// not poison the entry.
func (c *ImageCache) Load(ctx context.Context, contentAddress string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[contentAddress]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	data, err := c.fetcher.Fetch(ctx, contentAddress)
	if err != nil {
		return nil, err
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[contentAddress] = img
	c.mu.Unlock()
	return img, nil
}

// Evict removes one entry from the cache.
func (c *ImageCache) Evict(contentAddress string) {
	c.mu.Lock()
	delete(c.images, contentAddress)
	c.mu.Unlock()
}

// Clear removes all cached images, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

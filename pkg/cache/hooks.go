package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/imgblocks/pkg/observability"
)

// hookedCache reports cache traffic to observability hooks.
type hookedCache struct {
	inner Cache
}

// WithHooks wraps c so every Get and Set is reported to
// [observability.Cache]. The key type passed to the hooks is the key
// segment just before the hash, such as "diagram".
func WithHooks(c Cache) Cache {
	return &hookedCache{inner: c}
}

func (h *hookedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := h.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (h *hookedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := h.inner.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

func (h *hookedCache) Delete(ctx context.Context, key string) error {
	return h.inner.Delete(ctx, key)
}

func (h *hookedCache) Close() error {
	return h.inner.Close()
}

// keyType returns the namespace segment preceding the hash.
func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}

var _ Cache = (*hookedCache)(nil)

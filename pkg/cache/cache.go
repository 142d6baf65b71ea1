package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPrefix     = "health_app_"
	DefaultExpiration = time.Hour
)

// Entry is the serialized form of every cached value. Timestamp is the
// write time and Expiration the lifetime, both in milliseconds.
type Entry struct {
	Data       json.RawMessage `json:"data"`
	Timestamp  int64           `json:"timestamp"`
	Expiration int64           `json:"expiration"`
}

func (e Entry) Expired(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > e.Expiration
}

type Stats struct {
	TotalEntries   int     `json:"total_entries"`
	ValidEntries   int     `json:"valid_entries"`
	ExpiredEntries int     `json:"expired_entries"`
	TotalSize      int     `json:"total_size"`
	TotalSizeKB    float64 `json:"total_size_kb"`
}

type Option func(*Cache)

func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache is a namespaced, expiring key-value cache over a Storage backend.
// Storage failures never reach callers: reads degrade to a miss and
// writes are dropped after logging.
type Cache struct {
	storage Storage
	prefix  string
	now     func() time.Time
	log     *logrus.Logger
}

func New(storage Storage, log *logrus.Logger, opts ...Option) *Cache {
	c := &Cache{
		storage: storage,
		prefix:  DefaultPrefix,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(key string) string {
	return c.prefix + key
}

// Get decodes a live entry into out. Expired entries are removed and
// reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, out any) bool {
	found, expired := c.Lookup(ctx, key, out)
	if !found {
		return false
	}
	if expired {
		c.Clear(ctx, key)
		return false
	}
	return true
}

// Lookup decodes an entry into out without evicting it, reporting whether
// it was found and whether it has expired.
func (c *Cache) Lookup(ctx context.Context, key string, out any) (found bool, expired bool) {
	raw, err := c.storage.GetItem(ctx, c.key(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warnf("Failed to read cache key %s: %+v", key, err)
		}
		return false, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warnf("Failed to decode cache entry %s: %+v", key, err)
		return false, false
	}
	if err := json.Unmarshal(entry.Data, out); err != nil {
		c.log.Warnf("Failed to decode cached data %s: %+v", key, err)
		return false, false
	}

	return true, entry.Expired(c.now())
}

// Set stores data under key. A non-positive expiration means
// DefaultExpiration. When the backend is full, expired and unreadable
// entries are swept and the write is retried once.
func (c *Cache) Set(ctx context.Context, key string, data any, expiration time.Duration) {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}

	payload, err := json.Marshal(data)
	if err != nil {
		c.log.Warnf("Failed to encode cache data %s: %+v", key, err)
		return
	}
	raw, err := json.Marshal(Entry{
		Data:       payload,
		Timestamp:  c.now().UnixMilli(),
		Expiration: expiration.Milliseconds(),
	})
	if err != nil {
		c.log.Warnf("Failed to encode cache entry %s: %+v", key, err)
		return
	}

	err = c.storage.SetItem(ctx, c.key(key), raw)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		c.log.Warnf("Failed to write cache key %s: %+v", key, err)
		return
	}

	removed := c.SweepExpired(ctx)
	c.log.Infof("Cache quota exceeded, swept %d entries", removed)

	if err := c.storage.SetItem(ctx, c.key(key), raw); err != nil {
		c.log.Warnf("Dropping cache write %s after sweep: %+v", key, err)
	}
}

func (c *Cache) Clear(ctx context.Context, key string) {
	if err := c.storage.RemoveItem(ctx, c.key(key)); err != nil {
		c.log.Warnf("Failed to clear cache key %s: %+v", key, err)
	}
}

// ClearPrefix removes every entry whose key starts with prefix.
func (c *Cache) ClearPrefix(ctx context.Context, prefix string) {
	keys, err := c.storage.Keys(ctx, c.key(prefix))
	if err != nil {
		c.log.Warnf("Failed to list cache keys: %+v", err)
		return
	}
	for _, k := range keys {
		if err := c.storage.RemoveItem(ctx, k); err != nil {
			c.log.Warnf("Failed to clear cache key %s: %+v", k, err)
		}
	}
}

// ClearAll removes every entry in this cache's namespace and nothing else.
func (c *Cache) ClearAll(ctx context.Context) {
	c.ClearPrefix(ctx, "")
}

// SweepExpired removes expired and unreadable entries and returns how many
// were removed.
func (c *Cache) SweepExpired(ctx context.Context) int {
	keys, err := c.storage.Keys(ctx, c.prefix)
	if err != nil {
		c.log.Warnf("Failed to list cache keys: %+v", err)
		return 0
	}

	now := c.now()
	removed := 0
	for _, k := range keys {
		raw, err := c.storage.GetItem(ctx, k)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err == nil && !entry.Expired(now) {
			continue
		}
		if err := c.storage.RemoveItem(ctx, k); err == nil {
			removed++
		}
	}
	return removed
}

func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	keys, err := c.storage.Keys(ctx, c.prefix)
	if err != nil {
		return nil, err
	}

	now := c.now()
	stats := &Stats{}
	for _, k := range keys {
		raw, err := c.storage.GetItem(ctx, k)
		if err != nil {
			continue
		}
		stats.TotalEntries++
		stats.TotalSize += len(raw)

		// Unparsable entries count toward the totals only.
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Expired(now) {
			stats.ExpiredEntries++
			continue
		}
		stats.ValidEntries++
	}
	stats.TotalSizeKB = math.Round(float64(stats.TotalSize)/1024*100) / 100

	return stats, nil
}

// Key joins parts into a cache key, e.g. Key("slots", id, date).
func Key(parts ...string) string {
	return strings.Join(parts, "_")
}

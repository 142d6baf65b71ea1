package cache

import (
	"context"
	"sync"
	"time"

	"clinic-booking/pkg/retry"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultStale = "stale"
)

// Observer receives one call per Load with ResultHit, ResultMiss or ResultStale.
type Observer interface {
	ObserveCache(result string)
}

// Result is what Load hands back. Stale is set when the store could not be
// reached and an expired entry was served instead.
type Result[T any] struct {
	Data      T
	FromCache bool
	Stale     bool
}

// Reader combines a Cache with retried loads from the backing store.
type Reader struct {
	cache          *Cache
	retry          retry.Options
	refreshTimeout time.Duration
	observer       Observer
	log            *logrus.Logger

	group singleflight.Group
	wg    sync.WaitGroup
}

func NewReader(c *Cache, retryOpts retry.Options, refreshTimeout time.Duration, observer Observer, log *logrus.Logger) *Reader {
	if refreshTimeout <= 0 {
		refreshTimeout = retry.DefaultTimeout
	}
	return &Reader{
		cache:          c,
		retry:          retryOpts,
		refreshTimeout: refreshTimeout,
		observer:       observer,
		log:            log,
	}
}

func (r *Reader) Cache() *Cache {
	return r.cache
}

// Wait blocks until in-flight background refreshes have finished.
func (r *Reader) Wait() {
	r.wg.Wait()
}

func (r *Reader) observe(result string) {
	if r.observer != nil {
		r.observer.ObserveCache(result)
	}
}

// Load serves key from the cache when fresh and refreshes it in the
// background. Otherwise it runs loader under retry, caches the result, and
// falls back to an expired entry when every attempt failed.
func Load[T any](ctx context.Context, r *Reader, key string, expiration time.Duration, loader func(ctx context.Context) (T, error)) (Result[T], error) {
	var cached T
	found, expired := r.cache.Lookup(ctx, key, &cached)

	if found && !expired {
		r.observe(ResultHit)
		r.refresh(key, expiration, func(ctx context.Context) (any, error) {
			return loader(ctx)
		})
		return Result[T]{Data: cached, FromCache: true}, nil
	}

	r.observe(ResultMiss)
	data, err := retry.Do(ctx, loader, r.retry)
	if err == nil {
		r.cache.Set(ctx, key, data, expiration)
		return Result[T]{Data: data}, nil
	}

	if found {
		r.observe(ResultStale)
		r.log.Warnf("Serving expired cache entry %s after load failure: %+v", key, err)
		return Result[T]{Data: cached, FromCache: true, Stale: true}, nil
	}

	var zero T
	return Result[T]{Data: zero}, err
}

// refresh reloads key in the background. Concurrent refreshes of the same
// key share one store call, and failures are only logged.
func (r *Reader) refresh(key string, expiration time.Duration, load func(ctx context.Context) (any, error)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.refreshTimeout)
		defer cancel()

		_, err, _ := r.group.Do(key, func() (any, error) {
			data, err := load(ctx)
			if err != nil {
				return nil, err
			}
			r.cache.Set(ctx, key, data, expiration)
			return data, nil
		})
		if err != nil {
			r.log.Debugf("Background refresh of %s failed: %+v", key, err)
		}
	}()
}

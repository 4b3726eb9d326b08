package currency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fkhayef/dutchpay/pkg/apperror"
	"github.com/fkhayef/dutchpay/pkg/metrics"
)

type rateKey struct {
	date string
	from Code
	to   Code
}

func (k rateKey) String() string {
	return k.date + ":" + string(k.from) + ":" + string(k.to)
}

// CachedSource memoizes successful lookups of the wrapped source for the
// lifetime of the process. Failed lookups are not stored.
type CachedSource struct {
	src     RateSource
	timeout time.Duration
	mu      sync.RWMutex
	rates   map[rateKey]float64
	group   singleflight.Group
}

// NewCachedSource wraps src with an in-memory cache. A lookup shared by
// concurrent callers runs for at most timeout, independent of any one
// caller's context.
func NewCachedSource(src RateSource, timeout time.Duration) *CachedSource {
	return &CachedSource{
		src:     src,
		timeout: timeout,
		rates:   make(map[rateKey]float64),
	}
}

// Rate implements RateSource
func (c *CachedSource) Rate(ctx context.Context, date time.Time, from, to Code) (float64, error) {
	key := rateKey{date: date.Format(DateLayout), from: from, to: to}

	c.mu.RLock()
	rate, ok := c.rates[key]
	c.mu.RUnlock()
	if ok {
		metrics.RateLookups.WithLabelValues("hit").Inc()
		return rate, nil
	}

	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		rate, err := c.src.Rate(lookupCtx, date, from, to)
		if err != nil {
			return 0.0, err
		}
		c.mu.Lock()
		c.rates[key] = rate
		c.mu.Unlock()
		return rate, nil
	})

	select {
	case <-ctx.Done():
		metrics.RateLookups.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%w: %w", apperror.ErrRateUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			metrics.RateLookups.WithLabelValues("error").Inc()
			return 0, res.Err
		}
		metrics.RateLookups.WithLabelValues("miss").Inc()
		return res.Val.(float64), nil
	}
}

// Len returns the number of cached rates
func (c *CachedSource) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rates)
}

package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// totalsCache caches an owner's total balance under a per-owner generation.
// Invalidation bumps the generation instead of deleting the value, so a
// reader that summed before a mutation committed can only ever write under
// the generation the mutation has already retired.
type totalsCache struct {
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func totalsGenerationKey(ownerID string) string {
	return "total-gen:" + ownerID
}

func totalsCacheKey(ownerID, generation string) string {
	return "total:" + ownerID + ":" + generation
}

// get returns the cached total for ownerID, computing and storing it on a
// miss. Cache failures fall back to compute.
func (c totalsCache) get(ctx context.Context, ownerID string, compute func(context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if c.cache == nil {
		return compute(ctx)
	}

	// the generation must be read before the sum
	generation, err := c.cache.Get(ctx, totalsGenerationKey(ownerID))
	if err != nil {
		c.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("total balance cache read failed")
		return compute(ctx)
	}
	if generation == nil {
		generation = []byte("0")
	}
	key := totalsCacheKey(ownerID, string(generation))

	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("total balance cache read failed")
	} else if cached != nil {
		if total, perr := decimal.NewFromString(string(cached)); perr == nil {
			return total, nil
		}
	}

	total, err := compute(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.cache.Set(ctx, key, []byte(total.String()), c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("total balance cache write failed")
	}

	return total, nil
}

// invalidate retires every total cached for ownerID. It runs after commit
// and ignores caller cancellation.
func (c totalsCache) invalidate(ctx context.Context, ownerID string) {
	if c.cache == nil {
		return
	}
	if _, err := c.cache.Incr(context.WithoutCancel(ctx), totalsGenerationKey(ownerID)); err != nil {
		c.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("failed to invalidate cached total balance")
	}
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLockHeld = errors.New("lock held")

// AccountLocker implements usecase.AccountLocker across processes with a
// Redis lease per account. The lease expires after ttl, so a crashed holder
// cannot block an account forever; ttl must exceed the longest transaction.
type AccountLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	logger zerolog.Logger
}

// NewAccountLocker creates a new AccountLocker. wait bounds how long Lock
// retries before failing with domain.ErrConcurrencyConflict; a zero wait
// retries until ctx is done.
func NewAccountLocker(client *redis.Client, ttl, wait time.Duration, logger zerolog.Logger) *AccountLocker {
	return &AccountLocker{
		client: client,
		prefix: "lock:account:",
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

// Lock acquires the lease for accountID.
func (l *AccountLocker) Lock(ctx context.Context, accountID string) (func(), error) {
	key := l.prefix + accountID
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = l.wait

	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errLockHeld
		}
		return nil
	}, backoff.WithContext(b, ctx))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, errLockHeld) {
			return nil, fmt.Errorf("%w: account %s is locked", domain.ErrConcurrencyConflict, accountID)
		}
		return nil, fmt.Errorf("failed to acquire lock for account %s: %w", accountID, err)
	}

	return func() {
		// the caller's ctx may already be done; the release must still run
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Str("account_id", accountID).Msg("failed to release account lock")
		}
	}, nil
}

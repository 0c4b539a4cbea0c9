// internal/store/viewqueue.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spacedog-labs/wikiracer/internal/fault"
)

// viewQueueKey is the Redis list drained by the statd consumer.
const viewQueueKey = "wikiracer:views"

// ViewQueue defers article-view counting to an out-of-process consumer so the
// navigation path never waits on Postgres.
type ViewQueue struct {
	rdb *redis.Client
}

// NewViewQueue wraps an existing client.
func NewViewQueue(rdb *redis.Client) *ViewQueue {
	return &ViewQueue{rdb: rdb}
}

// LogArticleView enqueues one view event.
func (q *ViewQueue) LogArticleView(ctx context.Context, title string) error {
	if err := q.rdb.RPush(ctx, viewQueueKey, title).Err(); err != nil {
		return fault.Wrap(fault.Upstream, "view queue write failed", err)
	}
	return nil
}

// PopView blocks up to timeout for the next queued title. Returns an empty
// string when the wait times out.
func (q *ViewQueue) PopView(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BLPop(ctx, timeout, viewQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fault.Wrap(fault.Upstream, "view queue read failed", err)
	}
	// BLPop returns [key, value].
	if len(res) != 2 {
		return "", nil
	}
	return res[1], nil
}

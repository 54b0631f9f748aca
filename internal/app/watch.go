package service

import (
	"context"

	"github.com/okian/coach/internal/adapters/mq/changefeed"
	"github.com/okian/coach/internal/domain/types"
)

// watch subscribes to topic before taking the snapshot so no write between
// the two is missed. The subscription ends, and the channel closes, when ctx
// is done; callers own ctx and cancel it once they stop reading.
func watch[T any](ctx context.Context, feed changefeed.Subscriber, topic types.Topic, list func(context.Context) ([]T, error)) ([]T, <-chan types.Change, error) {
	changes, err := feed.Subscribe(ctx, topic)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := list(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snapshot, changes, nil
}

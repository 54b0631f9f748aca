// Package changefeed fans out write notifications to observers of stored
// collections.
//
// Delivery never blocks the writer. A subscriber that has not drained its
// pending notification misses later ones; since a notification only says
// "re-read", the observer still converges on the latest state.
package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/okian/coach/internal/domain/types"
	"github.com/okian/coach/pkg/logger"
	"github.com/okian/coach/pkg/metrics"
)

const defaultBufferSize = 1

// Publisher announces changes.
type Publisher interface {
	Publish(ctx context.Context, topic types.Topic) int
}

// Subscriber receives changes for one topic.
type Subscriber interface {
	Subscribe(ctx context.Context, topic types.Topic) (<-chan types.Change, error)
}

type subscription struct {
	topic types.Topic
	ch    chan types.Change
	stop  func() bool
}

// Feed is an in-process publish/subscribe hub keyed by topic.
type Feed struct {
	mu         sync.RWMutex
	subs       map[types.Topic]map[*subscription]struct{}
	bufferSize int
	closed     bool
	log        logger.Logger
	now        func() time.Time
}

// New creates an open feed.
func New(opts ...Option) *Feed {
	f := &Feed{
		subs:       make(map[types.Topic]map[*subscription]struct{}),
		bufferSize: defaultBufferSize,
		log:        logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe registers for changes on topic. The returned channel is closed
// when ctx is done or the feed is closed.
func (f *Feed) Subscribe(ctx context.Context, topic types.Topic) (<-chan types.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	sub := &subscription{
		topic: topic,
		ch:    make(chan types.Change, f.bufferSize),
	}
	if f.subs[topic] == nil {
		f.subs[topic] = make(map[*subscription]struct{})
	}
	f.subs[topic][sub] = struct{}{}
	sub.stop = context.AfterFunc(ctx, func() { f.unsubscribe(sub) })

	metrics.AddSubscribers(string(topic), 1)
	f.log.Debug(ctx, "subscribed", logger.String("topic", string(topic)))
	return sub.ch, nil
}

func (f *Feed) unsubscribe(sub *subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.subs[sub.topic]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(f.subs, sub.topic)
	}
	close(sub.ch)
	metrics.AddSubscribers(string(sub.topic), -1)
}

// Publish notifies every subscriber of topic and returns how many received
// a new notification. Subscribers with a full buffer are skipped.
func (f *Feed) Publish(ctx context.Context, topic types.Topic) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return 0
	}

	change := types.Change{Topic: topic, At: f.now()}
	delivered := 0
	for sub := range f.subs[topic] {
		select {
		case sub.ch <- change:
			delivered++
		default:
			metrics.RecordChangeCoalesced(string(topic))
		}
	}
	metrics.RecordChangePublished(string(topic))
	return delivered
}

// Subscribers returns the number of live subscriptions on topic.
func (f *Feed) Subscribers(topic types.Topic) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[topic])
}

// Close ends every subscription. Publishing after Close is a no-op.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	for topic, set := range f.subs {
		for sub := range set {
			sub.stop()
			close(sub.ch)
		}
		metrics.AddSubscribers(string(topic), -len(set))
		delete(f.subs, topic)
	}
	return nil
}

// IsClosed returns true if the feed has been closed.
func (f *Feed) IsClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

package changefeed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/coach/internal/domain/types"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan types.Change) (types.Change, bool) {
	t.Helper()
	select {
	case c, ok := <-ch:
		return c, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
		return types.Change{}, false
	}
}

func TestFeed_PublishSubscribe(t *testing.T) {
	f := New()
	defer func() { _ = f.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	players, err := f.Subscribe(ctx, types.TopicPlayers)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	plans, err := f.Subscribe(ctx, types.TopicPlans)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if n := f.Publish(ctx, types.TopicPlayers); n != 1 {
		t.Errorf("expected 1 delivery, got %d", n)
	}
	c, ok := receive(t, players)
	if !ok || c.Topic != types.TopicPlayers {
		t.Errorf("unexpected change %+v (ok=%v)", c, ok)
	}
	if c.At.IsZero() {
		t.Error("change should carry a timestamp")
	}

	select {
	case c := <-plans:
		t.Errorf("plans subscriber should not see players changes, got %+v", c)
	default:
	}
}

func TestFeed_Coalesces(t *testing.T) {
	f := New(WithBufferSize(1))
	defer func() { _ = f.Close() }()
	ctx := context.Background()

	ch, err := f.Subscribe(ctx, types.TopicExercises)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if n := f.Publish(ctx, types.TopicExercises); n != 1 {
		t.Errorf("first publish should deliver, got %d", n)
	}
	if n := f.Publish(ctx, types.TopicExercises); n != 0 {
		t.Errorf("second publish should coalesce, got %d", n)
	}

	receive(t, ch)
	select {
	case c := <-ch:
		t.Errorf("expected a single pending change, got another %+v", c)
	default:
	}

	if n := f.Publish(ctx, types.TopicExercises); n != 1 {
		t.Errorf("publish after drain should deliver, got %d", n)
	}
}

func TestFeed_CancelClosesChannel(t *testing.T) {
	f := New()
	defer func() { _ = f.Close() }()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := f.Subscribe(ctx, types.TopicPlans)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	if _, ok := receive(t, ch); ok {
		t.Error("expected channel to be closed after cancel")
	}
	if n := f.Subscribers(types.TopicPlans); n != 0 {
		t.Errorf("expected subscription removed, got %d", n)
	}
}

func TestFeed_Close(t *testing.T) {
	f := New()
	ctx := context.Background()

	ch, err := f.Subscribe(ctx, types.TopicPlayers)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !f.IsClosed() {
		t.Error("feed should report closed")
	}
	if _, ok := receive(t, ch); ok {
		t.Error("expected channel closed by Close")
	}
	if _, err := f.Subscribe(ctx, types.TopicPlayers); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if n := f.Publish(ctx, types.TopicPlayers); n != 0 {
		t.Errorf("publish after close should be a no-op, got %d", n)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestFeed_ConcurrentPublish(t *testing.T) {
	f := New(WithBufferSize(4))
	ctx, cancel := context.WithCancel(context.Background())

	const subscribers = 8
	var wg sync.WaitGroup
	for i := 0; i < subscribers; i++ {
		ch, err := f.Subscribe(ctx, types.TopicPlayers)
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
	}

	var pub sync.WaitGroup
	for i := 0; i < 4; i++ {
		pub.Add(1)
		go func() {
			defer pub.Done()
			for j := 0; j < 100; j++ {
				f.Publish(ctx, types.TopicPlayers)
			}
		}()
	}
	pub.Wait()

	cancel()
	wg.Wait()
	_ = f.Close()
}

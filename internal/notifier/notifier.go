// Package notifier fans a single "data changed" signal out to every
// connected browser session. The signal carries no payload; clients respond
// by re-querying whatever view they display. Delivery is best effort: a slow
// or gone subscriber never blocks the mutation that triggered the signal.
package notifier

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khlin/ticket-registration/internal/metrics"
)

// channel is the Redis pub/sub channel bridging instances. Every instance
// publishes here and re-broadcasts received messages to its local
// subscribers, so a gate-console toggle on one instance refreshes consoles
// connected to another.
const channel = "tickets.data_changed"

// Notifier is the broadcast hub. With a Redis client it bridges instances
// through pub/sub; without one it degrades to in-process fan-out.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
	rdb  *redis.Client
	log  *zap.Logger
}

// New constructs a Notifier. rdb may be nil.
func New(rdb *redis.Client, log *zap.Logger) *Notifier {
	return &Notifier{
		subs: make(map[chan struct{}]struct{}),
		rdb:  rdb,
		log:  log,
	}
}

// Run consumes the Redis channel and relays each message to local
// subscribers. It returns when ctx is cancelled; without Redis it is a no-op.
func (n *Notifier) Run(ctx context.Context) {
	if n.rdb == nil {
		return
	}
	sub := n.rdb.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			n.broadcastLocal()
		}
	}
}

// Publish signals one data change. With Redis the signal round-trips through
// the shared channel so every instance (this one included) broadcasts it;
// publish failures fall back to local fan-out so the instance's own clients
// still refresh.
func (n *Notifier) Publish(ctx context.Context) {
	if n.rdb != nil {
		if err := n.rdb.Publish(ctx, channel, "1").Err(); err == nil {
			return
		} else if n.log != nil {
			n.log.Warn("redis publish failed, broadcasting locally", zap.Error(err))
		}
	}
	n.broadcastLocal()
}

// Subscribe registers a client session. The returned channel receives one
// (possibly coalesced) signal per data change; cancel must be called when
// the session ends.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	metrics.Subscribers.Inc()

	cancel := func() {
		n.mu.Lock()
		if _, ok := n.subs[ch]; ok {
			delete(n.subs, ch)
			metrics.Subscribers.Dec()
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocal signals every local subscriber without blocking. A
// subscriber with a signal already pending simply coalesces; it will
// re-query once and see the latest state.
func (n *Notifier) broadcastLocal() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

/*
Package bus fans frames received on the shared chat connection out to every
view that subscribed to them.

A single Run loop owns the subscriber set. Each subscriber gets its frames in
publish order through a buffered channel; a subscriber that falls so far behind
that its buffer fills is dropped and its channel closed rather than stalling
the connection for everyone else.
*/
package bus

import (
	"sync"

	"github.com/rs/zerolog"

	"chatview/internal/pkg/logx"
	"chatview/internal/pkg/metrics"
	"chatview/internal/pkg/randx"
)

const (
	// DefaultSubscriberBuffer is the per-subscriber queue length.
	DefaultSubscriberBuffer = 256

	// publishChannelBuffer is the queue between publishers and the Run loop.
	publishChannelBuffer = 1024
)

// Subscription is one consumer of published frames.
type Subscription struct {
	// ID identifies the subscription in logs.
	ID string

	frames chan []byte
}

// Frames returns the channel frames are delivered on. It is closed when the
// subscription ends (unsubscribe, overflow or bus stop).
func (s *Subscription) Frames() <-chan []byte {
	return s.frames
}

// Bus is the publish/subscribe hub shared by all views of one connection.
type Bus struct {
	// subscribers is only touched by the Run goroutine.
	subscribers map[string]*Subscription

	// publish queues frames for fan-out.
	publish chan []byte

	// subscribe and unsubscribe carry membership changes to Run.
	subscribe   chan *Subscription
	unsubscribe chan *Subscription

	// stopChan signals Run to exit; done is closed once it has.
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// bufferSize is the per-subscriber queue length.
	bufferSize int

	logger zerolog.Logger
}

// New creates a Bus whose subscribers buffer up to bufferSize frames.
// A non-positive size selects DefaultSubscriberBuffer. Call Run to start it.
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}

	return &Bus{
		subscribers: make(map[string]*Subscription),
		publish:     make(chan []byte, publishChannelBuffer),
		subscribe:   make(chan *Subscription),
		unsubscribe: make(chan *Subscription),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		bufferSize:  bufferSize,
		logger:      logx.Component("bus"),
	}
}

// Run is the fan-out loop. It returns after Stop, closing every subscription.
func (b *Bus) Run() {
	defer func() {
		// done is closed first so a subscriber that sees its channel close
		// can tell a stop from an overflow.
		close(b.done)

		for id, sub := range b.subscribers {
			close(sub.frames)
			delete(b.subscribers, id)
		}
		metrics.BusSubscribers.Set(0)

		b.logger.Info().Msg("Bus Run loop finished.")
	}()

	for {
		select {
		case sub := <-b.subscribe:
			b.subscribers[sub.ID] = sub
			metrics.BusSubscribers.Set(float64(len(b.subscribers)))
			b.logger.Debug().
				Str("subscriber_id", sub.ID).
				Int("total_subscribers", len(b.subscribers)).
				Msg("Subscriber added.")

		case sub := <-b.unsubscribe:
			b.remove(sub, "unsubscribed")

		case frame := <-b.publish:
			for _, sub := range b.subscribers {
				select {
				case sub.frames <- frame:
				default:
					b.logger.Warn().
						Str("subscriber_id", sub.ID).
						Int("queue_len", len(sub.frames)).
						Msg("Subscriber queue full, dropping subscriber.")
					b.remove(sub, "overflow")
				}
			}

		case <-b.stopChan:
			b.logger.Info().Msg("Bus stop initiated.")
			return
		}
	}
}

// remove closes and forgets sub if it is still registered. Run goroutine only.
func (b *Bus) remove(sub *Subscription, reason string) {
	current, ok := b.subscribers[sub.ID]
	if !ok || current != sub {
		return
	}

	delete(b.subscribers, sub.ID)
	close(sub.frames)
	metrics.BusSubscribers.Set(float64(len(b.subscribers)))

	b.logger.Debug().
		Str("subscriber_id", sub.ID).
		Str("reason", reason).
		Int("total_subscribers", len(b.subscribers)).
		Msg("Subscriber removed.")
}

// Subscribe registers a new subscription. Frames published after Subscribe
// returns are delivered to it. On a stopped bus the returned subscription is
// already closed.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		ID:     randx.SubscriberID(),
		frames: make(chan []byte, b.bufferSize),
	}

	select {
	case b.subscribe <- sub:
	case <-b.done:
		close(sub.frames)
	}

	return sub
}

// Unsubscribe ends sub. It is safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	select {
	case b.unsubscribe <- sub:
	case <-b.done:
	}
}

// Publish queues frame for every current subscriber, blocking while the
// publish queue is full. It reports false once Stop has been called.
func (b *Bus) Publish(frame []byte) bool {
	select {
	case <-b.stopChan:
		return false
	default:
	}

	select {
	case b.publish <- frame:
		return true
	case <-b.stopChan:
		return false
	}
}

// Stop terminates the Run loop. It is safe to call more than once.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
	})
}

// Done is closed once the Run loop has stopped accepting work.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

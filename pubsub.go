package talon

import (
	"context"
	"sync"

	"github.com/talonkv/talon-go/core"
)

// -----------------------------------------------------------------------------
// Pub/Sub
// -----------------------------------------------------------------------------

// Message is a single pub/sub delivery. Pattern is set only for messages
// that matched a pattern subscription.
type Message struct {
	Channel string
	Pattern string
	Payload []byte
}

// MessageQueue buffers incoming pub/sub messages without bounds so the
// core's delivery callback never blocks. Obtain one from Client.Queue.
type MessageQueue struct {
	mu     sync.Mutex
	items  []Message
	wake   chan struct{}
	done   chan struct{}
	closed bool

	chOnce sync.Once
	ch     chan Message
}

func newMessageQueue() *MessageQueue {
	return &MessageQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// push appends a message. Safe to call from the core's callback goroutine.
func (q *MessageQueue) push(m Message) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, m)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// TryNext returns the next message without blocking; ok is false when the
// queue is currently empty.
func (q *MessageQueue) TryNext() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Message{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

// Next blocks until a message arrives, ctx is done, or the queue is
// closed. A closed empty queue reports ErrClosedClient.
func (q *MessageQueue) Next(ctx context.Context) (Message, error) {
	for {
		if m, ok := q.TryNext(); ok {
			return m, nil
		}
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return Message{}, core.ErrClosedClient
		}
		select {
		case <-q.wake:
		case <-q.done:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Ch returns a channel draining the queue. The pump goroutine starts on
// first call and stops when the queue closes; mixing Ch with Next on the
// same queue splits deliveries between the two.
func (q *MessageQueue) Ch() <-chan Message {
	q.chOnce.Do(func() {
		q.ch = make(chan Message)
		go func() {
			defer close(q.ch)
			for {
				m, err := q.Next(context.Background())
				if err != nil {
					return
				}
				// Close must release the pump even when the consumer
				// stopped reading.
				select {
				case q.ch <- m:
				case <-q.done:
					return
				}
			}
		}()
	})
	return q.ch
}

// Close drops buffered messages and releases blocked consumers.
func (q *MessageQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	close(q.done)
}

// Queue returns the message queue fed by the subscriptions declared in
// the client configuration. The first call installs the push handler;
// every call returns the same queue.
func (c *baseClient) Queue() (*MessageQueue, error) {
	c.queueOnce.Do(func() {
		q := newMessageQueue()
		err := c.core.Subscribe(func(msg core.PushMessage) {
			if !msg.Kind.IsMessage() {
				c.log.Debug().
					Str("kind", msg.Kind.String()).
					Str("channel", msg.Channel).
					Msg("subscription state change")
				return
			}
			q.push(Message{
				Channel: msg.Channel,
				Pattern: msg.Pattern,
				Payload: msg.Payload,
			})
		})
		if err != nil {
			q.Close()
			c.queueErr = err
			return
		}
		c.queue = q
	})
	return c.queue, c.queueErr
}

// Publish sends message to channel and returns how many subscribers
// received it (in cluster mode, on the handling node).
func (c *baseClient) Publish(ctx context.Context, channel string, message []byte) (int64, error) {
	res, err := c.exec(ctx, "PUBLISH", arg(channel), message)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SPublish sends message to a sharded channel (cluster mode).
func (c *ClusterClient) SPublish(ctx context.Context, channel string, message []byte) (int64, error) {
	res, err := c.exec(ctx, "SPUBLISH", arg(channel), message)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// PubSubChannels lists active channels, optionally filtered by pattern.
func (c *baseClient) PubSubChannels(ctx context.Context, pattern string) ([]string, error) {
	args := [][]byte{}
	if pattern != "" {
		args = append(args, arg(pattern))
	}
	res, err := c.exec(ctx, "PUBSUB CHANNELS", args...)
	if err != nil {
		return nil, err
	}
	return toStringSlice(res)
}

// PubSubNumSub returns subscriber counts per channel.
func (c *baseClient) PubSubNumSub(ctx context.Context, channels ...string) (map[string]int64, error) {
	res, err := c.exec(ctx, "PUBSUB NUMSUB", stringsToArgs(channels)...)
	if err != nil {
		return nil, err
	}
	return toInt64Map(res)
}

// PubSubNumPat returns the number of unique pattern subscriptions.
func (c *baseClient) PubSubNumPat(ctx context.Context) (int64, error) {
	res, err := c.exec(ctx, "PUBSUB NUMPAT")
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

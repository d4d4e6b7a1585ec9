package redisbridge

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talonkv/talon-go/core"
)

// Backoff bounds for a pump whose Receive keeps failing while the bridge
// is still open.
const (
	pumpBackoffMin = 50 * time.Millisecond
	pumpBackoffMax = 2 * time.Second
)

// Subscribe implements core.Core. The subscriptions come from the
// connection config; each underlying go-redis PubSub gets a pump
// goroutine that translates its traffic into push messages.
func (b *Bridge) Subscribe(handler core.PushHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return core.ErrClosedClient
	}

	ctx := context.Background()
	if len(b.cfg.Channels) > 0 || len(b.cfg.Patterns) > 0 {
		var ps *redis.PubSub
		if b.cluster != nil {
			ps = b.cluster.Subscribe(ctx, b.cfg.Channels...)
		} else {
			ps = b.single.Subscribe(ctx, b.cfg.Channels...)
		}
		if len(b.cfg.Patterns) > 0 {
			if err := ps.PSubscribe(ctx, b.cfg.Patterns...); err != nil {
				ps.Close()
				return err
			}
		}
		b.pubsubs = append(b.pubsubs, ps)
		go b.pump(ps, handler, false)
	}
	if len(b.cfg.ShardedChannels) > 0 {
		if b.cluster == nil {
			return errors.New("redisbridge: sharded subscriptions need cluster mode")
		}
		ps := b.cluster.SSubscribe(ctx, b.cfg.ShardedChannels...)
		b.pubsubs = append(b.pubsubs, ps)
		go b.pump(ps, handler, true)
	}
	return nil
}

// pump relays one PubSub's traffic until the bridge closes. Receive
// failing on a live bridge means the connection dropped; go-redis
// reconnects and resubscribes underneath, so the pump reports the
// disconnection, backs off and keeps going.
func (b *Bridge) pump(ps *redis.PubSub, handler core.PushHandler, sharded bool) {
	ctx := context.Background()
	backoff := pumpBackoffMin
	for {
		msg, err := ps.Receive(ctx)
		if err != nil {
			if b.isClosed() {
				return
			}
			handler(core.PushMessage{Kind: core.PushKindDisconnection})
			b.log.Debug().Err(err).Dur("backoff", backoff).Msg("pubsub receive failed")
			time.Sleep(backoff)
			backoff = nextPumpBackoff(backoff)
			continue
		}
		backoff = pumpBackoffMin
		switch m := msg.(type) {
		case *redis.Message:
			out := core.PushMessage{
				Kind:    core.PushKindMessage,
				Channel: m.Channel,
				Pattern: m.Pattern,
				Payload: []byte(m.Payload),
			}
			if sharded {
				out.Kind = core.PushKindSMessage
			} else if m.Pattern != "" {
				out.Kind = core.PushKindPMessage
			}
			handler(out)
		case *redis.Subscription:
			handler(core.PushMessage{
				Kind:    subscriptionKind(m.Kind),
				Channel: m.Channel,
			})
		}
	}
}

func nextPumpBackoff(d time.Duration) time.Duration {
	if d *= 2; d > pumpBackoffMax {
		return pumpBackoffMax
	}
	return d
}

func subscriptionKind(kind string) core.PushKind {
	switch kind {
	case "subscribe":
		return core.PushKindSubscribe
	case "psubscribe":
		return core.PushKindPSubscribe
	case "ssubscribe":
		return core.PushKindSSubscribe
	case "unsubscribe":
		return core.PushKindUnsubscribe
	case "punsubscribe":
		return core.PushKindPUnsubscribe
	case "sunsubscribe":
		return core.PushKindSUnsubscribe
	}
	return core.PushKindOther
}

package redisbridge

import (
	"testing"

	"github.com/talonkv/talon-go/core"
)

func TestSubscriptionKind(t *testing.T) {
	cases := map[string]core.PushKind{
		"subscribe":    core.PushKindSubscribe,
		"psubscribe":   core.PushKindPSubscribe,
		"ssubscribe":   core.PushKindSSubscribe,
		"unsubscribe":  core.PushKindUnsubscribe,
		"punsubscribe": core.PushKindPUnsubscribe,
		"sunsubscribe": core.PushKindSUnsubscribe,
		"other":        core.PushKindOther,
	}
	for kind, want := range cases {
		if got := subscriptionKind(kind); got != want {
			t.Errorf("subscriptionKind(%q) = %v, want %v", kind, got, want)
		}
	}
}

func TestPumpBackoffDoublesAndCaps(t *testing.T) {
	d := pumpBackoffMin
	for i := 0; i < 20; i++ {
		next := nextPumpBackoff(d)
		if next > pumpBackoffMax {
			t.Fatalf("Backoff %v exceeds the cap", next)
		}
		if d < pumpBackoffMax && next <= d {
			t.Fatalf("Backoff did not grow: %v -> %v", d, next)
		}
		d = next
	}
	if d != pumpBackoffMax {
		t.Errorf("Backoff = %v, want to settle at %v", d, pumpBackoffMax)
	}
}

package talon

import (
	"fmt"

	"github.com/talonkv/talon-go/core"
)

// ErrClosedClient is returned by every operation after Close.
var ErrClosedClient = core.ErrClosedClient

// IsTimeout reports whether err was classified as a request timeout by the
// core.
func IsTimeout(err error) bool {
	return core.KindOf(err) == core.KindTimeout
}

// IsDisconnect reports whether err was caused by a dropped connection.
func IsDisconnect(err error) bool {
	return core.KindOf(err) == core.KindDisconnect
}

func errMultiNodeRoute(cmd string) error {
	return fmt.Errorf("%s requires a single-node route", cmd)
}

func errMalformedReply(cmd string, reply any) error {
	return fmt.Errorf("%s: malformed reply %T", cmd, reply)
}

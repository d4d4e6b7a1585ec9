// Package native implements the core boundary over the talon shared
// library through cgo. The library owns connection management, cluster
// topology, pipelining and protocol encoding; this package marshals
// requests across the C ABI and normalizes replies.
//
// The implementation compiles only with the talon_native build tag, since
// it needs libtalon_core and its headers at link time:
//
//	go build -tags talon_native ./...
//
// Without the tag the package is empty and the module builds with the
// pure-Go redisbridge core only.
package native

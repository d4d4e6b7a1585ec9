//go:build talon_native

package native

/*
#include <stdlib.h>
#include <string.h>
#include <talon_core.h>
*/
import "C"

import (
	"unsafe"

	"github.com/talonkv/talon-go/core"
)

// Request marshalling. Every build* allocates C memory the matching
// free* releases; the shared library copies what it keeps before the
// call returns.

func cStringArray(items []string) (**C.char, C.size_t) {
	if len(items) == 0 {
		return nil, 0
	}
	arr := (**C.char)(C.malloc(C.size_t(len(items)) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	slice := unsafe.Slice(arr, len(items))
	for i, s := range items {
		slice[i] = C.CString(s)
	}
	return arr, C.size_t(len(items))
}

func freeCStringArray(arr **C.char, n C.size_t) {
	if arr == nil {
		return
	}
	slice := unsafe.Slice(arr, int(n))
	for _, p := range slice {
		C.free(unsafe.Pointer(p))
	}
	C.free(unsafe.Pointer(arr))
}

func cByteSlices(items [][]byte) (**C.uint8_t, *C.size_t, C.size_t) {
	if len(items) == 0 {
		return nil, nil, 0
	}
	ptrs := (**C.uint8_t)(C.malloc(C.size_t(len(items)) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	lens := (*C.size_t)(C.malloc(C.size_t(len(items)) * C.size_t(unsafe.Sizeof(C.size_t(0)))))
	pSlice := unsafe.Slice(ptrs, len(items))
	lSlice := unsafe.Slice(lens, len(items))
	for i, b := range items {
		pSlice[i] = (*C.uint8_t)(C.CBytes(b))
		lSlice[i] = C.size_t(len(b))
	}
	return ptrs, lens, C.size_t(len(items))
}

func freeCByteSlices(ptrs **C.uint8_t, lens *C.size_t, n C.size_t) {
	if ptrs == nil {
		return
	}
	pSlice := unsafe.Slice(ptrs, int(n))
	for _, p := range pSlice {
		C.free(unsafe.Pointer(p))
	}
	C.free(unsafe.Pointer(ptrs))
	C.free(unsafe.Pointer(lens))
}

func buildRoute(route core.Route) *C.TalonRoute {
	if route == nil {
		return nil
	}
	r := (*C.TalonRoute)(C.calloc(1, C.size_t(unsafe.Sizeof(C.TalonRoute{}))))
	switch rt := route.(type) {
	case core.SimpleRoute:
		switch rt {
		case core.AllNodesRoute:
			r.kind = C.TALON_ROUTE_ALL_NODES
		case core.AllPrimariesRoute:
			r.kind = C.TALON_ROUTE_ALL_PRIMARIES
		default:
			r.kind = C.TALON_ROUTE_RANDOM
		}
	case core.SlotIDRoute:
		r.kind = C.TALON_ROUTE_SLOT_ID
		r.slot_id = C.int32_t(rt.SlotID)
		r.slot_type = C.int32_t(rt.SlotType)
	case core.SlotKeyRoute:
		r.kind = C.TALON_ROUTE_SLOT_KEY
		r.slot_key = C.CString(rt.SlotKey)
		r.slot_type = C.int32_t(rt.SlotType)
	case core.ByAddressRoute:
		r.kind = C.TALON_ROUTE_BY_ADDRESS
		r.host = C.CString(rt.Host)
		r.port = C.int32_t(rt.Port)
	}
	return r
}

func freeRoute(r *C.TalonRoute) {
	if r == nil {
		return
	}
	if r.slot_key != nil {
		C.free(unsafe.Pointer(r.slot_key))
	}
	if r.host != nil {
		C.free(unsafe.Pointer(r.host))
	}
	C.free(unsafe.Pointer(r))
}

func buildConnectionRequest(cfg Config) *C.TalonConnectionRequest {
	req := (*C.TalonConnectionRequest)(C.calloc(1, C.size_t(unsafe.Sizeof(C.TalonConnectionRequest{}))))
	req.addresses, req.address_count = cStringArray(cfg.Addresses)
	req.cluster_mode = C.bool(cfg.ClusterMode)
	req.use_tls = C.bool(cfg.UseTLS)
	req.insecure_tls = C.bool(cfg.InsecureSkipVerify)
	req.username = C.CString(cfg.Username)
	req.password = C.CString(cfg.Password)
	req.database_id = C.int32_t(cfg.DatabaseID)
	req.client_name = C.CString(cfg.ClientName)
	req.protocol = C.int32_t(cfg.Protocol)
	req.request_timeout_ms = C.int64_t(cfg.RequestTimeoutMs)
	req.connection_timeout_ms = C.int64_t(cfg.ConnectionTimeoutMs)
	req.lazy_connect = C.bool(cfg.LazyConnect)
	req.channels, req.channel_count = cStringArray(cfg.Channels)
	req.patterns, req.pattern_count = cStringArray(cfg.Patterns)
	req.sharded_channels, req.sharded_channel_count = cStringArray(cfg.ShardedChannels)
	return req
}

func freeConnectionRequest(req *C.TalonConnectionRequest) {
	freeCStringArray(req.addresses, req.address_count)
	freeCStringArray(req.channels, req.channel_count)
	freeCStringArray(req.patterns, req.pattern_count)
	freeCStringArray(req.sharded_channels, req.sharded_channel_count)
	C.free(unsafe.Pointer(req.username))
	C.free(unsafe.Pointer(req.password))
	C.free(unsafe.Pointer(req.client_name))
	C.free(unsafe.Pointer(req))
}

func buildCommandRequest(cmd core.Cmd, route core.Route) *C.TalonCommandRequest {
	req := (*C.TalonCommandRequest)(C.calloc(1, C.size_t(unsafe.Sizeof(C.TalonCommandRequest{}))))
	req.name = C.CString(cmd.Name)
	req.args, req.arg_lens, req.arg_count = cByteSlices(cmd.Args)
	req.route = buildRoute(route)
	return req
}

func freeCommandRequest(req *C.TalonCommandRequest) {
	C.free(unsafe.Pointer(req.name))
	freeCByteSlices(req.args, req.arg_lens, req.arg_count)
	freeRoute(req.route)
	C.free(unsafe.Pointer(req))
}

func buildBatchRequest(batch core.BatchSpec, opts core.BatchOptions) *C.TalonBatchRequest {
	req := (*C.TalonBatchRequest)(C.calloc(1, C.size_t(unsafe.Sizeof(C.TalonBatchRequest{}))))
	req.cmds = (**C.TalonCommandRequest)(C.malloc(C.size_t(len(batch.Cmds)) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	slice := unsafe.Slice(req.cmds, len(batch.Cmds))
	for i, c := range batch.Cmds {
		slice[i] = buildCommandRequest(c, nil)
	}
	req.cmd_count = C.size_t(len(batch.Cmds))
	req.atomic = C.bool(batch.Atomic)
	req.timeout_ms = C.int64_t(opts.Timeout)
	req.retry_server_error = C.bool(opts.RetryServerError)
	req.retry_conn_error = C.bool(opts.RetryConnError)
	req.raise_on_error = C.bool(opts.RaiseOnError)
	req.route = buildRoute(opts.Route)
	return req
}

func freeBatchRequest(req *C.TalonBatchRequest) {
	slice := unsafe.Slice(req.cmds, int(req.cmd_count))
	for _, c := range slice {
		freeCommandRequest(c)
	}
	C.free(unsafe.Pointer(req.cmds))
	freeRoute(req.route)
	C.free(unsafe.Pointer(req))
}

func buildScriptRequest(sha string, keys, args [][]byte, route core.Route) *C.TalonScriptRequest {
	req := (*C.TalonScriptRequest)(C.calloc(1, C.size_t(unsafe.Sizeof(C.TalonScriptRequest{}))))
	req.hash = C.CString(sha)
	req.keys, req.key_lens, req.key_count = cByteSlices(keys)
	req.args, req.arg_lens, req.arg_count = cByteSlices(args)
	req.route = buildRoute(route)
	return req
}

func freeScriptRequest(req *C.TalonScriptRequest) {
	C.free(unsafe.Pointer(req.hash))
	freeCByteSlices(req.keys, req.key_lens, req.key_count)
	freeCByteSlices(req.args, req.arg_lens, req.arg_count)
	freeRoute(req.route)
	C.free(unsafe.Pointer(req))
}

func buildScanRequest(cursor string, opts core.ScanOptions) *C.TalonScanRequest {
	req := (*C.TalonScanRequest)(C.calloc(1, C.size_t(unsafe.Sizeof(C.TalonScanRequest{}))))
	req.cursor = C.CString(cursor)
	req.match_pattern = C.CString(opts.Match)
	req.count = C.int64_t(opts.Count)
	req.object_type = C.CString(opts.Type)
	return req
}

func freeScanRequest(req *C.TalonScanRequest) {
	C.free(unsafe.Pointer(req.cursor))
	C.free(unsafe.Pointer(req.match_pattern))
	C.free(unsafe.Pointer(req.object_type))
	C.free(unsafe.Pointer(req))
}

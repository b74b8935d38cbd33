// Package bridge implements the request/response protocol spoken with
// worker processes.
//
// A call serializes a worker function name, its JSON-encoded arguments,
// and an operation id into the worker's argv, then demultiplexes the
// worker's stdout: sentinel-prefixed lines become progress events on the
// hub, everything else accumulates as the final JSON result body. All
// failures for a call resolve through its Invocation rather than as
// synchronous panics or errors, so callers branch in exactly one place.
package bridge

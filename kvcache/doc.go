// Package kvcache provides the typed key-value cache client used by the
// credential engine. It exposes plain get/set/touch/delete operations and
// keeps "key not found" ([ErrMiss]) strictly separate from "cache backend
// unreachable" ([ErrUnavailable]) so that callers can decide between
// fail-closed and fail-open behavior.
//
// The Redis implementation additionally offers an optimistic
// compare-and-swap extension ([Swapper]) used by the registry layer to
// close lost-update races on read-modify-write sequences.
package kvcache

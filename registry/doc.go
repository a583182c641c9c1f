// Package registry emulates named member sets on top of a cache that only
// offers single-key get/set/touch/delete. Each group is one cache key
// holding a JSON-encoded ordered list of member strings, which makes bulk
// enumeration and bulk invalidation possible without native list support
// in the backing store.
//
// Membership is advisory bookkeeping, not a system of record: reads observe
// a best-effort snapshot, and a member registered while a group is being
// invalidated may survive the invalidation. When the cache client supports
// compare-and-swap the register/erase paths use it to avoid lost updates;
// otherwise they degrade to last-writer-wins.
package registry

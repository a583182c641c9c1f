// Package querycache is a read-through cache for serialized query results.
// Entries are keyed by a deterministic hash of the query parameters and
// every entry is registered into a per-entity registry group, so a
// mutation of that entity can drop all of its cached queries at once.
//
// This is a read-acceleration path: cache failures degrade to a miss and
// a warning log, never to a failed request.
package querycache

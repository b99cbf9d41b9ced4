// Package dedupe provides a shared singleflight group used to deduplicate
// concurrent session loads. When several requests race to restore the same
// persisted session into memory, only one snapshot decode runs; the other
// callers wait for and share the result.
package dedupe

import "golang.org/x/sync/singleflight"

// SessionGroup deduplicates session restore requests keyed by session ID.
var SessionGroup singleflight.Group

// Package cache provides a generic, thread-safe LRU cache.
//
//	c := cache.NewLRUCache[int64, upload.ConfigRecord](256)
//	c.Put(7, rec)
//	if rec, ok := c.Get(7); ok {
//		...
//	}
//
// Entries have no expiry; store a timestamp in the value and check it on
// read when freshness matters.
package cache

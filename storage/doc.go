// Package storage persists the task collection in a local key-value store.
//
// A KV maps string keys to opaque byte values, the way a browser's
// localStorage does. Three backends are provided:
//
//   - FileKV keeps one file per key in a directory, written atomically under
//     an exclusive file lock so separate processes never interleave writes.
//   - SQLiteKV keeps a single kv table in a SQLite database.
//   - MemoryKV keeps values in a map and is meant for tests.
//
// Adapter layers JSON serialization of a slice on top of a KV under one
// fixed key.
package storage

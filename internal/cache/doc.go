// Package cache defines the disk-backed store that keeps one metadata record
// per app identifier under CacheDir/<appid>.json. Records are written with
// temp file + rename, and the file modification time doubles as the write
// timestamp that FreshnessPolicy compares against a jittered TTL. The
// metadata resolver depends on this package to decide which identifiers still
// need a remote lookup.
package cache

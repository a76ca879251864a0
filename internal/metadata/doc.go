// Package metadata resolves batches of app identifiers into metadata
// documents. Fresh cache records are served locally; every miss goes out in a
// single Fetcher call and is written back to the store.
package metadata

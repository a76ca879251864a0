// Package lookup talks to the remote metadata service. Fetcher is the batch
// capability the resolver depends on; HTTPFetcher is the production
// implementation that posts app identifiers and decodes the keyed response.
package lookup

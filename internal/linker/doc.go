// Package linker runs one full pass: for every storage root it scans app
// identifiers, resolves their metadata through the cache and builds packages,
// then materializes the link tree for all packages in a single sequential
// pass. Failures are isolated per root and per package and collected into a
// Summary instead of stopping the run.
package linker

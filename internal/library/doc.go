// Package library models Steam library folders (storage roots) and discovers
// the app identifiers installed in each. Roots come from libraryfolders.vdf
// plus any extra paths from the configuration; roots missing on disk are
// skipped.
package library

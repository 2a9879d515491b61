// Package dupindex maintains the content-addressed duplicate registry that
// guarantees a given document body is filed at most once.
//
// The registry maps hex SHA-256 digests over raw file bytes to
// library-relative destination paths and lives as one JSON document at
// .docket/dupindex.json under the library root. Corruption is never fatal:
// a bad document loads as an empty index, and Rebuild re-derives the mapping
// from the filed tree.
package dupindex

// Package organizer implements the filing stage that moves classified
// documents into their final library location.
//
// Filing is a single pass per item: duplicate lookup by content hash,
// taxonomy resolution with an uncategorized fallback, identifier allocation
// by scanning the category directory, then move, index record, and sidecar
// write. The duplicate index and sidecars are advisory derivatives; the
// library tree itself stays authoritative, so index or sidecar write failures
// are logged rather than failing the item.
package organizer

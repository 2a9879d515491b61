// Package taxonomy models the Johnny-Decimal-style area and category
// structure of the document library.
//
// The effective taxonomy is merged on demand from three layers in ascending
// precedence: built-in defaults, the persisted jdex.json document under
// "00-09 System/00 Index", and folder names discovered by scanning the
// library root. Validation reports structural violations; they are advisory
// for discovered folders and enforced when authoring a persisted structure.
package taxonomy

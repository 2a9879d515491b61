// Package textutil provides text processing utilities for fingerprinting,
// similarity, and filename sanitization.
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// The tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters tokens shorter than 3 characters.
package textutil

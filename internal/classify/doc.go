// Package classify maps extracted document text onto the taxonomy.
//
// Backends implement a single Classify capability: an LLM backend for
// OpenAI-compatible endpoints, a CLI backend that shells out to an assistant
// binary, and a deterministic keyword backend that never performs I/O and
// never fails. The Orchestrator selects one backend per document (explicit
// configuration or availability probing in llm, cli, keyword order) and
// absorbs any backend failure with exactly one fallback to keyword
// matching, so classification always yields a result.
package classify

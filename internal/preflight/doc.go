// Package preflight provides readiness checks for external tools and
// filesystem paths that docket depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll once at startup and logs the outcome so a
//     misconfigured install fails loudly rather than quietly quarantining
//     every document.
//   - The CLI "docket status" command uses the individual check functions
//     to display readiness.
//
// Each check is gated by its config toggle; unconfigured features are skipped.
package preflight

// Command docket is the CLI for the docket document filing system. It talks
// to a running daemon over its Unix socket when one is available and falls
// back to direct queue and library access otherwise.
package main

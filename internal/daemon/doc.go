// Package daemon hosts the long-running docket process.
//
// It owns single-instance locking, the inbox scanner that feeds the queue,
// and the queue management surface the IPC server exposes to the CLI. The
// workflow manager does the actual item processing; the daemon only wires it
// to the filesystem and keeps it alive.
package daemon

// Package daemon coordinates the long-running snag process.
//
// It wires configuration, the job store, and the download engine into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon owns the event-fold loop: every engine event is applied to the
// persistent job collection here, so the engine itself stays free of storage
// concerns. IPC handlers call the exported job operations.
package daemon

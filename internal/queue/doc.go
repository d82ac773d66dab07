// Package queue persists the download job collection in SQLite.
//
// The store is the daemon's source of truth for job state. The engine never
// touches it; the daemon folds engine events into job rows, so every status
// transition the user can observe goes through this package.
package queue

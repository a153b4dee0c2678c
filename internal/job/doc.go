// Package job defines the durable representation of a queued unit of work.
//
// A Job couples a shell command with delivery and scheduling metadata:
// Status, Attempts, MaxRetries, Priority, lock ownership, and retry
// timing. These fields are maintained by the store and the executor;
// Job values returned by the store are snapshots and must be mutated
// only through store operations.
package job

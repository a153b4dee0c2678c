// Package cli builds the queuectl command tree: the control surface that
// maps user intents (enqueue, list, get, status, clear, dlq, config,
// worker) onto internal/store and internal/supervisor. It owns no
// durable state of its own.
package cli

// Command queuectl is a local, durable background job queue: a shell
// command executor, a pool of worker processes, exponential-backoff
// retries, a dead-letter queue, and priority-ordered dispatch.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/queuectl/queuectl/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(cli.Execute(ctx))
}

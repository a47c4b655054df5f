// Command velov-sync mirrors the Vélo'v stations of the Grand Lyon open-data
// feed into Wikidata: one item per station, written only when it changed.
//
// Usage:
//
//	velov-sync [--dry-run] [--refresh] [--profile file.yaml] [--env-file .env]
//	velov-sync check [--refresh]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

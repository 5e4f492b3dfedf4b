// Command csvload infers the schema of a delimited text file and bulk-loads it
// into a database table in batches, retrying failed batches with exponential
// backoff.
//
// Usage:
//
//	csvload [flags] <file.csv>
//
// Run "csvload --help" for the flag list. Every flag can also be set in a
// config file (--config) or through CSVLOAD_* environment variables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// register all backends with the storage factory.
	_ "csvload/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

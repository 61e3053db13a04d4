// cmd/onboard/main.go
//
// This is the entry point for the onboard CLI.
//
// Flow:
// 1. Load .env and .onboard/config.yaml from the working directory
// 2. Read the roster and, for course variants, ask which course to target
// 3. Sign every row up (and enroll it), writing updated_<roster> as we go

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Ctrl-C stops the batch after the current request; rows already
	// processed stay in the updated roster. Default handling is restored
	// after the first signal so a second Ctrl-C kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// lineshell - a line-oriented TCP echo and remote terminal server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lineshell/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lineshell: %v\n", err)
		os.Exit(1)
	}
}

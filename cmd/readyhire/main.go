// Command readyhire is the terminal practice client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		a.teardown()
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		return 1
	}
	return 0
}

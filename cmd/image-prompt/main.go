package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nachoal/image-prompt-go/workflow"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(exitCode(rootCmd.ExecuteContext(ctx)))
}

// exitCode prints err and maps it to a process status. Aborts caused by a
// missing view, selection or image are notices, not failures.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if workflow.IsPrecondition(err) {
		fmt.Fprintf(os.Stderr, "image-prompt: %v\n", err)
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sdprompt/core"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		// Use fmt here since logger isn't initialized yet
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(context.Background())
	if err != nil {
		reportError(os.Stderr, err)
	}
	os.Exit(core.ExitCodeFor(err))
}

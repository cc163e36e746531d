package main

import (
	"context"
	"fmt"
	"os"

	"kabuka-watcher/internal/cli"
	"kabuka-watcher/internal/logging"
)

func main() {
	logger := logging.NewLogger()

	root := cli.NewRootCmd(logger)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

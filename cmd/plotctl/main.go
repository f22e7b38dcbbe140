package main

import (
	"fmt"
	"os"

	"github.com/danmuck/plotwire/internal/logging"
	"github.com/tebeka/atexit"
)

func main() {
	logging.ConfigureRuntime()
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "plotctl: %v\n", err)
		atexit.Exit(1)
	}
	// Runs registered handlers, which close any open session.
	atexit.Exit(0)
}

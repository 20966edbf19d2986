// Command sim_runner runs multilevel-queue scheduling workloads in batch mode
// and manages the runs it has stored.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

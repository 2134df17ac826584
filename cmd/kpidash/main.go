// Package main is the entry point for kpidash.
package main

import (
	"fmt"
	"os"

	"sales-kpi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

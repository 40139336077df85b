// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fieldmesh",
	Short: "Tools for working with fieldmesh coordination-kernel deployments",
	Long: `The fieldmesh command provides tools for checking mesh configurations,
running in-process simulations of a module population, and benchmarking
the tick loop's throughput.`,
}

func main() {
	rootCmd.AddCommand(
		checkCmd(),
		simCmd(),
		benchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

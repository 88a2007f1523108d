// SPDX-License-Identifier: Apache-2.0

// Package cmd is the command line surface of trifold: one canonical job
// document in, per-predictor inputs and reconciled outputs back.
package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "trifold",
	Short: `Coordinate AlphaFold3, Boltz and Chai-1 from one job document.
Project canonical inputs, normalize raw outputs, compare runs.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands,
// structured like go-corset's pkg/cmd/root.go: a bare cobra.Command with
// persistent flags shared by every subcommand.
var rootCmd = &cobra.Command{
	Use:   "airscriptc",
	Short: "A compiler for the AirScript constraint language.",
	Long:  "Lowers an AirScript module through MIR and AIR-IR down to an arithmetic circuit for a STARK verifier.",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Bool("legacy", false, "reject any module declaring a bus (spec.md §9 legacy pipeline)")
	rootCmd.PersistentFlags().Bool("no-optimize", false, "disable circuit-builder operand reordering and identity elimination")
}

func getFlag(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func getString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

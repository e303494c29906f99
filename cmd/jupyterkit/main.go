package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jupyterkit",
	Short: "Run and manage an embedded Jupyter notebook server",
	Long:  "jupyterkit supervises a loopback Jupyter server backed by a discovered or bundled Python runtime, and provides notebook analysis and conversion services.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
}

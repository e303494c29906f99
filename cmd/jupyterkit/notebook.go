package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/richinsley/jupyterkit"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <notebook.ipynb>",
	Short: "Statically analyze a notebook (cells, imports, plots, spatial data)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var convertCmd = &cobra.Command{
	Use:   "convert <notebook.ipynb>",
	Short: "Convert a notebook: extract charts or pass through spatial exports",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	analyzeCmd.Flags().String("format", "yaml", "Output format: yaml or json")
	convertCmd.Flags().String("output", "", "Write result JSON to file instead of stdout")
	convertCmd.Flags().Duration("timeout", 5*time.Minute, "Overall cell execution timeout")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(convertCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	nb, err := jupyterkit.ReadNotebookFile(args[0])
	if err != nil {
		return err
	}
	analysis := jupyterkit.Analyze(nb)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(analysis)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	nb, err := jupyterkit.ReadNotebookFile(args[0])
	if err != nil {
		return err
	}

	var runner *jupyterkit.CellRunner
	if !nb.IsSpatialExport() {
		// Chart extraction needs a live interpreter; spatial passthrough
		// does not.
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		logger := jupyterkit.NewSlogLogger(cfg.SlogLevel())
		boot := jupyterkit.NewBootstrap(cfg.InitOptions(logger))
		if err := boot.Initialize(); err != nil {
			return fmt.Errorf("initializing runtime: %w", err)
		}
		env, err := boot.Environment()
		if err != nil {
			return err
		}
		runner, err = jupyterkit.NewCellRunner(env)
		if err != nil {
			return fmt.Errorf("starting cell runner: %w", err)
		}
		defer runner.Close()
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := jupyterkit.ConvertNotebook(ctx, nb, runner)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(output, data, 0644)
}

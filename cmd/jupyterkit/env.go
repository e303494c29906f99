package main

import (
	"fmt"

	"github.com/richinsley/jupyterkit"
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect and snapshot the Python runtime",
}

var envInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved Python runtime",
	RunE:  runEnvInfo,
}

var envFreezeCmd = &cobra.Command{
	Use:   "freeze <spec.json>",
	Short: "Write the runtime's package spec to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvFreeze,
}

func init() {
	envCmd.AddCommand(envInfoCmd)
	envCmd.AddCommand(envFreezeCmd)
	rootCmd.AddCommand(envCmd)
}

func resolveEnv(cmd *cobra.Command) (*jupyterkit.PythonEnvironment, error) {
	cfg, err := loadConfigFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	switch {
	case cfg.PythonPath != "":
		return jupyterkit.EnvironmentFromExecutable(cfg.PythonPath)
	case cfg.RuntimeDir != "":
		return jupyterkit.EnvironmentFromBundle(cfg.RuntimeDir)
	default:
		return jupyterkit.EnvironmentFromSystem()
	}
}

func runEnvInfo(cmd *cobra.Command, args []string) error {
	env, err := resolveEnv(cmd)
	if err != nil {
		return err
	}
	fmt.Printf("name:          %s\n", env.Name())
	fmt.Printf("python:        %s (%s)\n", env.PythonVersion.String(), env.PythonPath)
	if env.PipPath != "" {
		fmt.Printf("pip:           %s (%s)\n", env.PipVersion.String(), env.PipPath)
	} else {
		fmt.Println("pip:           not available")
	}
	fmt.Printf("site-packages: %s\n", env.SitePackagesPath)
	if jv, err := env.JupyterVersion(); err == nil {
		fmt.Printf("jupyter:       %s\n", jv.String())
	} else {
		fmt.Println("jupyter:       not installed")
	}
	return nil
}

func runEnvFreeze(cmd *cobra.Command, args []string) error {
	env, err := resolveEnv(cmd)
	if err != nil {
		return err
	}
	if err := env.Freeze(args[0]); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", args[0])
	return nil
}

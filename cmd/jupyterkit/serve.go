package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/richinsley/jupyterkit"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Initialize the runtime and run the Jupyter server until interrupted",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "Jupyter server port (overrides config)")
	serveCmd.Flags().String("root", "", "Notebook root directory (overrides config)")
	serveCmd.Flags().Bool("no-api", false, "Disable the sidecar notebook API")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Root = root
	}
	noAPI, _ := cmd.Flags().GetBool("no-api")

	logger := jupyterkit.NewSlogLogger(cfg.SlogLevel())

	boot := jupyterkit.NewBootstrap(cfg.InitOptions(logger))
	if err := boot.Initialize(); err != nil {
		return fmt.Errorf("initializing runtime: %w", err)
	}
	if err := boot.StartServerWithOptions(cfg.ServerOptions(logger)); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	defer boot.StopServer()

	readyCtx, cancelReady := context.WithTimeout(context.Background(), 60*time.Second)
	err = boot.WaitReady(readyCtx)
	cancelReady()
	if err != nil {
		return fmt.Errorf("waiting for server: %w", err)
	}

	srv := boot.Server()
	url := srv.URL()
	if srv.Token() != "" {
		url += "?token=" + srv.Token()
	}
	fmt.Printf("Jupyter server ready at %s\n", url)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !noAPI && cfg.APIAddr != "" {
		env, err := boot.Environment()
		if err != nil {
			return err
		}
		runner, err := jupyterkit.NewCellRunner(env)
		if err != nil {
			logger.Warn("cell runner unavailable, chart extraction disabled", "err", err)
		} else {
			defer runner.Close()
		}
		api := jupyterkit.NewAPIServer(jupyterkit.APIOptions{
			Runner:    runner,
			Bootstrap: boot,
			Logger:    logger,
		})
		go func() {
			if err := api.Serve(ctx, cfg.APIAddr); err != nil && err != context.Canceled {
				logger.Error("api server stopped", "err", err)
			}
		}()
		fmt.Printf("Notebook API listening on %s\n", cfg.APIAddr)
	}

	<-ctx.Done()
	fmt.Println("Shutting down...")
	return nil
}

func loadConfigFromFlags(cmd *cobra.Command) (jupyterkit.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path, _ = cmd.InheritedFlags().GetString("config")
	}
	return jupyterkit.LoadConfig(path)
}

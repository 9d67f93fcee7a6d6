package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"DiabScreen/internal/di"
	"DiabScreen/internal/services/artifacts"
	"DiabScreen/pkg/config"

	"github.com/spf13/cobra"
)

// Set by the linker at build time.
var (
	version = "dev"
	commit  = "none"
)

// Exit codes. Artifact failures get their own codes so orchestrators can tell
// a bad deployment from a crash.
const (
	exitError     = 1
	exitFetchFail = 2
	exitLoadFail  = 3
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "diabscreen",
		Short:         "Diabetes risk screening service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	root.AddCommand(serveCmd(), provisionCmd(), versionCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("error: %v", err)
		os.Exit(exitCode(err))
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Provision artifacts and serve the screening API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			log.Printf("env=%s backend=%s artifacts=%s", cfg.Environment, cfg.Model.Backend, cfg.Artifacts.Dir)

			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			return app.Run(cmd.Context())
		},
	}
}

func provisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Fetch and verify the model artifacts, then exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			b, err := di.InitializeBundle(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("artifacts ready: version=%s threshold=%g\n", b.Version, b.Threshold)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("diabscreen %s (%s)\n", version, commit)
		},
	}
}

func exitCode(err error) int {
	var (
		ferr *artifacts.FetchError
		lerr *artifacts.LoadError
	)
	switch {
	case errors.As(err, &ferr):
		return exitFetchFail
	case errors.As(err, &lerr):
		return exitLoadFail
	case errors.Is(err, context.Canceled):
		return 0
	default:
		return exitError
	}
}

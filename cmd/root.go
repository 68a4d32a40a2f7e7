package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/server"
	"github.com/reviewpilot/reviewpilot/internal/version"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reviewpilot",
		Short: "Reviewpilot review-integration service",
		Long: `Reviewpilot aggregates customer reviews from external platforms and lets
business owners connect accounts, import reviews, and reply to them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			fmt.Printf("reviewpilot %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
		},
	}
}

func runServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := LoadConfig()
	if err != nil {
		return err
	}

	deps, err := BuildDependencies(ctx, config)
	if err != nil {
		return err
	}
	defer deps.Close()

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		GoogleOAuthController: deps.GoogleOAuthController,
		ReviewController:      deps.ReviewController,
		AccountResolver:       deps.AccountResolver,
	})

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("address", config.HTTPAddress).Msg("Starting HTTP server")

		errCh <- app.Listen(config.HTTPAddress)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return app.ShutdownWithContext(shutdownCtx)
}

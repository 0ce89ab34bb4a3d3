package main

import (
	"context"
	"errors"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 15 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:               "foodgram",
	Short:             "Recipe sharing API",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadServiceConfig,
	RunE:              runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load reference data from a .json or .csv file",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "service_conf.json", "path to the service config")

	for _, kind := range []string{"ingredients", "tags"} {
		importCmd.AddCommand(&cobra.Command{
			Use:   kind + " <file>",
			Short: "Import " + kind,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(kind, args[0])
			},
		})
	}

	rootCmd.AddCommand(serveCmd, importCmd)
}

func loadServiceConfig(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)

	if errors.Is(err, ErrConfigWritten) {
		Log.WithField("path", configPath).Info("wrote default config, edit it and start again")
		os.Exit(0)
	}

	if err != nil {
		return err
	}

	ServiceConfig = cfg
	SetupLogging(ServiceConfig.Log)

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := SetupDatabaseConnection(); err != nil {
		return err
	}

	SetupRedisConnection()

	if err := SetupImageStorage(); err != nil {
		return err
	}

	if err := SetupCaches(); err != nil {
		return err
	}

	app := NewApp()

	listenErr := make(chan error, 1)

	go func() {
		listenErr <- app.Listen(ServiceConfig.Listen)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	Log.Info("shutting down")

	return app.ShutdownWithTimeout(shutdownTimeout)
}

func runImport(kind string, path string) error {
	if err := SetupDatabaseConnection(); err != nil {
		return err
	}

	SetupRedisConnection()

	imported, err := ImportFile(kind, path)

	if err != nil {
		return err
	}

	Log.WithField("kind", kind).WithField("imported", imported).Info("import finished")

	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchroom/internal/config"
	"github.com/DoyleJ11/sketchroom/internal/logging"
	"github.com/DoyleJ11/sketchroom/internal/profile"
)

var rootCmd = &cobra.Command{
	Use:           "sketchroom",
	Short:         "Join and play drawing rooms from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagEnvFile  string
	flagWSURL    string
	flagHTTPURL  string
	flagDataDir  string
	flagLogLevel string
	flagDev      bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEnvFile, "env-file", ".env", "optional dotenv file")
	flags.StringVar(&flagWSURL, "ws-url", "", "room websocket base URL (env "+config.EnvWSURL+")")
	flags.StringVar(&flagHTTPURL, "http-url", "", "room HTTP API base URL (env "+config.EnvHTTPURL+")")
	flags.StringVar(&flagDataDir, "data-dir", "", "directory for the local profile (env "+config.EnvDataDir+")")
	flags.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (env "+config.EnvLogLevel+")")
	flags.BoolVar(&flagDev, "dev", false, "human-readable logs")

	rootCmd.AddCommand(roomsCmd, nameCmd, joinCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sketchroom:", err)
		os.Exit(1)
	}
}

// app is what every subcommand needs, built from config overlaid with flags.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}
	if flagWSURL != "" {
		cfg.WSURL = flagWSURL
	}
	if flagHTTPURL != "" {
		cfg.HTTPURL = flagHTTPURL
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if cmd.Flags().Changed("dev") {
		cfg.Dev = flagDev
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) openProfile() (*profile.Store, error) {
	return profile.Open(a.cfg.DataDir)
}

// close flushes the logger; sync errors on terminals are expected and ignored.
func (a *app) close(err error) error {
	_ = a.logger.Sync()
	return err
}

var nameCmd = &cobra.Command{
	Use:   "name [display-name]",
	Short: "Show or set the display name used when joining rooms",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		store, err := a.openProfile()
		if err != nil {
			return a.close(err)
		}
		defer func() { err = a.close(multierr.Append(err, store.Close())) }()

		if len(args) == 1 {
			if err := store.SetName(args[0]); err != nil {
				return err
			}
		}
		name, err := store.Name()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

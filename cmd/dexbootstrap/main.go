package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/compose-network/dex-bootstrap/configs"
	"github.com/compose-network/dex-bootstrap/internal/bootstrap"
	"github.com/compose-network/dex-bootstrap/internal/devnet"
	"github.com/compose-network/dex-bootstrap/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "dex-bootstrap"

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Provision a Uniswap V2 style exchange on an EVM test network",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// until the configured destination is known
		logger.InitializeWithWriter(os.Stderr, slog.LevelInfo)

		var searchPaths []string
		if execPath, err := os.Executable(); err == nil {
			searchPaths = append(searchPaths, filepath.Dir(execPath))
		}
		searchPaths = append(searchPaths, ".", "./configs")

		// the embedded defaults are always loaded; a config file and flags override them
		cfg, configFile, err := configs.Load(viper.GetViper(), searchPaths...)
		if err != nil {
			slog.With("err", err.Error()).Error("failed to load configuration")
			return err
		}
		configs.Values = cfg

		level, err := logger.ParseLevel(configs.Values.LogLevel)
		if err != nil {
			return err
		}
		output, err := logger.Output(configs.Values.LogOutput)
		if err != nil {
			return err
		}
		logger.InitializeWithWriter(output, level)

		if configFile != "" {
			slog.With("config_file", configFile).Debug("config file loaded")
		} else {
			slog.Debug("no config file found, using embedded defaults and flags")
		}
		slog.With("log_level", level.String()).Debug("configuration loaded")

		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-output", "stdout", "Log destination (stdout or stderr)")

	for _, name := range []string{"log-level", "log-output"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	rootCmd.AddCommand(bootstrap.CMD)
	rootCmd.AddCommand(devnet.CMD)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		stop()
		os.Exit(1)
	}
}

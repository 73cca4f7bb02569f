package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/config"
)

var (
	cfgFile string
	version = "dev"

	// Set up by initConfig before any command runs.
	cfg       config.Config
	logger    = common.Discard()
	logCloser io.Closer

	rootCmd = &cobra.Command{
		Use:   "cashback",
		Short: "💸 Bank statement reports and cashback analysis",
		Long: `the-cashback-must-flow: reads the operations spreadsheet exported by your bank,
summarizes spending and cashback per card and category, and shows the
currency rates and stock prices you follow.`,
		PersistentPreRunE:  initConfig,
		PersistentPostRunE: closeLogger,
		SilenceUsage:       true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/cashback/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("data-dir", "./data", "directory with the operations spreadsheet, settings and reports")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	// Add commands
	rootCmd.AddCommand(mainPageCmd())
	rootCmd.AddCommand(cashbackCmd())
	rootCmd.AddCommand(spendingCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(interactiveCmd())
	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(sheetsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.Error()))
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		_ = closeLogger(nil, nil)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	v := viper.GetViper()
	config.SetDefaults(v)

	// Set up config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		v.AddConfigPath(fmt.Sprintf("%s/.config/cashback", home))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	if err := config.BindEnv(v); err != nil {
		return err
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	loaded, err := config.Load(v)
	if err != nil {
		return common.NewUserError("invalid configuration", err)
	}
	cfg = loaded

	// Set up logging
	l, closer, err := common.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logger = l
	logCloser = closer
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		"data_dir", cfg.DataDir,
		"operations", cfg.OperationsPath,
		"settings", cfg.SettingsPath,
		"config_file", v.ConfigFileUsed())
	return nil
}

func closeLogger(_ *cobra.Command, _ []string) error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cashback version %s\n", version)
		},
	}
}

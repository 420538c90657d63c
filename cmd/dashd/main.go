package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crosswatch/dashd/internal/daemon"
	"github.com/crosswatch/dashd/internal/utils"
	"github.com/crosswatch/dashd/internal/version"
)

var (
	home, _          = os.UserHomeDir()
	defaultConfigDir = filepath.Join(home, ".crosswatch")
	defaultServerURL = "http://localhost:8787"
	defaultAddr      = "localhost:8788"
	configFileName   = "dashd"
)

var rootCmd = &cobra.Command{
	Use:     "dashd",
	Short:   "CrossWatch dashboard daemon",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := viper.GetString("db_path")
		if dbPath != "" {
			resolved, err := utils.ResolvePath(dbPath)
			if err != nil {
				return fmt.Errorf("resolve db path %q: %w", dbPath, err)
			}
			dbPath = resolved
		}

		cfg := &daemon.Config{
			ServerURL: viper.GetString("server_url"),
			Addr:      viper.GetString("addr"),
			AuthToken: viper.GetString("auth_token"),
			DBPath:    dbPath,
			LockPath:  filepath.Join(defaultConfigDir, "dashd.lock"),
		}

		cmd.SilenceUsage = true
		showHeader()

		d, err := daemon.New(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return d.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("server", "s", defaultServerURL, "CrossWatch backend URL")
	rootCmd.Flags().StringP("addr", "a", defaultAddr, "Address to bind the dashboard server")
	rootCmd.Flags().StringP("token", "t", "", "Access token for the dashboard API")
	rootCmd.Flags().String("db", filepath.Join(defaultConfigDir, "history.db"), "Run history database path")
	rootCmd.PersistentFlags().StringP("config", "c", "", "dashd config file")
}

func main() {
	logFile := filepath.Join(defaultConfigDir, "logs", "dashd.log")
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logInterceptor := utils.NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(logInterceptor, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// Do not include time as it is added by the log interceptor.
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	multiLogHandler := utils.NewMultiLogHandler(stdoutHandler, fileHandler)
	slog.SetDefault(slog.New(multiLogHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// .env first so viper's env layer sees its values
	_ = godotenv.Load()

	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		resolved, err := utils.ResolvePath(configFilePath)
		if err != nil {
			return fmt.Errorf("resolve config path %q: %w", configFilePath, err)
		}
		// a config file given explicitly must exist; only the default
		// location is allowed to be absent
		if !utils.FileExists(resolved) {
			return fmt.Errorf("config file %q does not exist", resolved)
		}
		viper.SetConfigFile(resolved)
	} else {
		viper.AddConfigPath(defaultConfigDir)
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("server_url", cmd.Flags().Lookup("server"))
	viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	viper.BindPFlag("auth_token", cmd.Flags().Lookup("token"))
	viper.BindPFlag("db_path", cmd.Flags().Lookup("db"))

	viper.SetEnvPrefix("CROSSWATCH")
	viper.AutomaticEnv()

	return nil
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).Printf("CrossWatch Dash %s\n", version.Short())
}

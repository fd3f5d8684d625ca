package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/labstock/internal/config"
	"github.com/erazemk/labstock/internal/idgen"
)

var (
	configPath string
	envFile    string
	dbPath     string
	addr       string
	logPath    string
	baseURL    string
	nodeID     int64

	cfg      *config.Config
	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:           "labstock",
	Short:         "Lab inventory with scannable restock labels",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, envFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("db") {
			cfg.DB = dbPath
		}
		if flags.Changed("addr") {
			cfg.Addr = addr
		}
		if flags.Changed("log") {
			cfg.Log = logPath
		}
		if flags.Changed("base-url") {
			cfg.BaseURL = baseURL
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		idgen.SetNode(nodeID)

		closeLog, err = setupLogger(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	pf.StringVar(&envFile, "env-file", "", "dotenv file (default: .env when present)")
	pf.StringVarP(&dbPath, "db", "d", "", "SQLite database path (default: labstock.sqlite3)")
	pf.StringVarP(&addr, "addr", "a", "", "listen address (default: :8080)")
	pf.StringVarP(&logPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	pf.Int64Var(&nodeID, "node", 1, "snowflake node number for notification ids (0-1023)")
	pf.StringVar(&baseURL, "base-url", "", "external origin embedded in labels, e.g. https://lab.example.com")

	rootCmd.AddCommand(serveCmd, labelCmd, decodeCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

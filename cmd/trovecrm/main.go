package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robtrove/TroveCRM/internal/appctx"
)

var (
	verbose     bool
	configPath  string
	contextPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "trovecrm",
	Short: "TroveCRM server and command-line client",
	Long: `TroveCRM serves the CRM table API (customers, campaigns, deals,
tickets, articles) and doubles as its command-line client.

Run "trovecrm serve" on the server; use "trovecrm login" and the record
commands from a workstation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	defaultContext, err := appctx.DefaultPath()
	if err != nil {
		defaultContext = ".trovecrm.yaml"
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "server configuration file")
	rootCmd.PersistentFlags().StringVar(&contextPath, "context", defaultContext, "client session file")

	rootCmd.AddCommand(serveCmd, migrateCmd, userCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, prefsCmd)
	rootCmd.AddCommand(listCmd, exportCmd, deleteCmd, dealCmd, dashboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

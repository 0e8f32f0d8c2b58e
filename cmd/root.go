package cmd

import (
	"fmt"
	"os"

	"freshpoint-watch/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "freshpoint-watch",
	Short: "FreshPoint catalog watcher",
	Long: `freshpoint-watch tracks FreshPoint vending machine product listings,
detects added, removed and changed products and dispatches typed change
events to subscribers, a history database and an object storage archive.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Report through the standard application logger; console format
		// matches CLI expectations.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"freshpoint-watch/core/client"
	"freshpoint-watch/core/config"
	"freshpoint-watch/core/logger"
	"freshpoint-watch/feature/page"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanFlags struct {
	start int
	stop  int
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover locations that currently list products",
	Long: `Probes a range of location identifiers and reports the ones serving a
non-empty product listing. The result can be pasted into WATCH_LOCATIONS.`,
	Run: func(cmd *cobra.Command, args []string) {
		runLocationScan(cmd.Context())
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanFlags.start, "start", 0, "first location identifier to probe")
	scanCmd.Flags().IntVar(&scanFlags.stop, "stop", 500, "probe locations below this identifier")
	RootCmd.AddCommand(scanCmd)
}

func runLocationScan(ctx context.Context) {
	if scanFlags.start < 0 || scanFlags.stop <= scanFlags.start {
		fmt.Printf("Invalid scan range [%d, %d)\n", scanFlags.start, scanFlags.stop)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	hub := page.NewHub(client.NewClient(cfg.Client), logg)
	logg.Info("Scanning locations",
		zap.Int("start", scanFlags.start),
		zap.Int("stop", scanFlags.stop))
	if err := hub.Scan(ctx, scanFlags.start, scanFlags.stop); err != nil {
		logg.Fatal("Location scan failed", zap.Error(err))
	}

	pages := hub.Pages()

	// Pretty Console Output
	fmt.Println("\n--- Discovered Locations ---")
	var ids []string
	for _, p := range pages {
		catalog := p.Catalog()
		fmt.Printf("%-6d %-30s %d products\n", p.LocationID(), catalog.LocationName(), catalog.Len())
		ids = append(ids, fmt.Sprintf("%d", p.LocationID()))
	}
	if len(pages) == 0 {
		fmt.Println("No locations with products found in the scanned range.")
	} else {
		fmt.Printf("\nWATCH_LOCATIONS=%s\n", strings.Join(ids, ","))
	}
	fmt.Println("----------------------------")
}

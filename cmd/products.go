package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"freshpoint-watch/core/client"
	"freshpoint-watch/core/config"
	"freshpoint-watch/core/logger"
	"freshpoint-watch/feature/page"
	"freshpoint-watch/feature/product"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var productFlags struct {
	name       string
	category   string
	available  bool
	onSale     bool
	vegetarian bool
	glutenFree bool
}

// productsCmd represents the top-level products command
var productsCmd = &cobra.Command{
	Use:   "products [location]",
	Short: "List the products currently offered at a location",
	Long:  `Fetches the product page of one location and prints its current listing without dispatching any events or touching the catalog store.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runProductListing(cmd.Context(), cmd, args[0])
	},
}

func init() {
	productsCmd.Flags().StringVar(&productFlags.name, "name", "", "match product names (diacritics and case insensitive)")
	productsCmd.Flags().StringVar(&productFlags.category, "category", "", "match category names")
	productsCmd.Flags().BoolVar(&productFlags.available, "available", false, "only products in stock")
	productsCmd.Flags().BoolVar(&productFlags.onSale, "on-sale", false, "only discounted products")
	productsCmd.Flags().BoolVar(&productFlags.vegetarian, "vegetarian", false, "only vegetarian products")
	productsCmd.Flags().BoolVar(&productFlags.glutenFree, "gluten-free", false, "only gluten free products")
	RootCmd.AddCommand(productsCmd)
}

func runProductListing(ctx context.Context, cmd *cobra.Command, location string) {
	locationID, err := strconv.Atoi(location)
	if err != nil || locationID < 0 {
		fmt.Printf("Invalid location identifier: %s\n", location)
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

	p := page.NewPage(locationID, client.NewClient(cfg.Client), logg)
	if err := p.UpdateSilently(ctx); err != nil {
		logg.Fatal("Failed to fetch product listing", zap.Error(err))
	}

	var constraints []product.Constraint
	if productFlags.name != "" {
		constraints = append(constraints, product.WithName(productFlags.name))
	}
	if productFlags.category != "" {
		constraints = append(constraints, product.WithCategory(productFlags.category))
	}
	if productFlags.available {
		constraints = append(constraints, product.Available())
	}
	if productFlags.onSale {
		constraints = append(constraints, product.OnSale())
	}
	if productFlags.vegetarian {
		constraints = append(constraints, product.Vegetarian(true))
	}
	if productFlags.glutenFree {
		constraints = append(constraints, product.GlutenFree(true))
	}

	catalog := p.Catalog()
	listed := p.FindAll(constraints...)

	// Pretty Console Output
	fmt.Printf("\n--- %s (%d) ---\n", catalog.LocationName(), locationID)
	fmt.Printf("URL:       %s\n", p.URL())
	fmt.Printf("Products:  %d listed, %d matching\n", catalog.Len(), len(listed))
	fmt.Println("-----------------------------")
	for _, s := range listed {
		line := fmt.Sprintf("%-6d %-40s %5.2f Kč", s.ProductID, s.Name, s.PriceCurr)
		if s.IsOnSale() {
			line += fmt.Sprintf(" (was %.2f Kč)", s.PriceFull)
		}
		if s.IsSoldOut() {
			line += "  SOLD OUT"
		} else {
			line += fmt.Sprintf("  x%d", s.Quantity)
		}
		fmt.Println(line)
	}
	fmt.Println("-----------------------------")
}

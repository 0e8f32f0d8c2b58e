package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"freshpoint-watch/core/client"
	"freshpoint-watch/core/config"
	"freshpoint-watch/core/database"
	"freshpoint-watch/core/logger"
	"freshpoint-watch/core/storage"
	"freshpoint-watch/core/store"
	"freshpoint-watch/feature/archive"
	"freshpoint-watch/feature/dispatch"
	"freshpoint-watch/feature/history"
	"freshpoint-watch/feature/page"
	"freshpoint-watch/feature/product"
	"freshpoint-watch/feature/reconcile"
	"freshpoint-watch/feature/status"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shutdownTimeout bounds the handler drain on exit.
const shutdownTimeout = 15 * time.Second

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured locations for product changes",
	Long: `Starts the polling daemon. Each cycle fetches the configured product
pages, reconciles them against the last observed state and dispatches the
resulting change events to the enabled sinks (log, history database,
snapshot archive). State survives restarts through the local catalog store.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		locations, ok := cfg.Watch.ParseLocations()
		if !ok {
			logg.Fatal("Invalid WATCH_LOCATIONS value", zap.String("locations", cfg.Watch.Locations))
		}
		if len(locations) == 0 {
			logg.Fatal("No locations configured; set WATCH_LOCATIONS or run the scan command first")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// 3. Open the local catalog store
		catalogStore, err := store.Open(cfg.Store)
		if err != nil {
			logg.Fatal("Failed to open catalog store", zap.Error(err))
		}
		defer catalogStore.Close()

		// 4. Build the hub and restore persisted state
		hub := page.NewHub(client.NewClient(cfg.Client), logg)
		for _, locationID := range locations {
			p := hub.NewPage(locationID)
			restored, found, err := catalogStore.LoadCatalog(locationID)
			if err != nil {
				logg.Warn("Failed to restore catalog",
					logField(locationID), zap.Error(err))
				continue
			}
			if found {
				p.Restore(restored)
				logg.Info("Restored catalog",
					logField(locationID), zap.Int("products", restored.Len()))
			}
		}

		// 5. Event sinks
		hub.Subscribe(logEvents(logg), reconcile.KindAny,
			dispatch.SubscribeOptions{Blocking: true, Safe: true})
		hub.Subscribe(persistCatalogs(hub, catalogStore), reconcile.KindAny,
			dispatch.SubscribeOptions{Blocking: true, Safe: true})

		var recorder *history.Recorder
		if cfg.Database.Enabled {
			if db, err := database.Connect(cfg.Database); err != nil {
				logg.Warn("Event history disabled, database connection failed", zap.Error(err))
			} else {
				recorder = history.NewRecorder(db, logg)
				if err := recorder.Migrate(); err != nil {
					logg.Fatal("Failed to migrate event history schema", zap.Error(err))
				}
				hub.Subscribe(recorder.Handler(), reconcile.KindAny,
					dispatch.SubscribeOptions{Safe: true})
				logg.Info("Event history enabled")
			}
		}

		if cfg.Storage.Enabled {
			storageClient, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			archiver := archive.NewArchiver(storageClient, cfg.Storage.Bucket, logg)
			if err := archiver.EnsureBucket(ctx); err != nil {
				logg.Fatal("Failed to prepare snapshot archive", zap.Error(err))
			}
			hub.Subscribe(archiver.Handler(currentCatalog(hub)), reconcile.KindAny,
				dispatch.SubscribeOptions{Safe: true})
			logg.Info("Snapshot archive enabled", zap.String("bucket", cfg.Storage.Bucket))
		}

		// 6. Establish the baseline without dispatching events. Changes that
		// happened while the watcher was down are folded in silently; the
		// restored catalogs from step 4 only carry the state forward when
		// this initial fetch fails.
		if err := hub.UpdateAllSilently(ctx); err != nil {
			logg.Warn("Initial update failed for some locations", zap.Error(err))
		}
		saveAll(hub, catalogStore, logg)

		// 7. Status API (Optional)
		var app *fiber.App
		if cfg.Server.Enabled {
			app = fiber.New(fiber.Config{DisableStartupMessage: true})
			app.Use(func(c *fiber.Ctx) error {
				err := c.Next()
				logg.Debug("Request handled",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Int("status", c.Response().StatusCode()))
				return err
			})
			status.NewHandler(status.NewService(hub, recorder, logg)).RegisterRoutes(app)

			address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			go func() {
				logg.Info("Starting status server", zap.String("address", address))
				if err := app.Listen(address); err != nil {
					logg.Fatal("Status server failed to start", zap.Error(err))
				}
			}()
		}

		// 8. Poll until interrupted
		interval := time.Duration(cfg.Watch.IntervalSeconds) * time.Second
		logg.Info("Watching locations",
			zap.Ints("locations", locations),
			zap.Duration("interval", interval))
		go func() {
			if err := hub.UpdateForever(ctx, interval, cfg.Watch.AwaitHandlers); err != nil && ctx.Err() == nil {
				logg.Error("Watch loop terminated", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down...")

		// 9. Graceful Shutdown
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hub.AwaitHandlers(drainCtx); err != nil {
			logg.Warn("Some event handlers did not finish in time", zap.Error(err))
		}
		if app != nil {
			_ = app.Shutdown()
		}
		saveAll(hub, catalogStore, logg)
	},
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

func logField(locationID int) zap.Field {
	return zap.Int("locationId", locationID)
}

// logEvents reports every dispatched event at info level.
func logEvents(logg *zap.Logger) dispatch.Handler {
	return func(ctx context.Context, event *dispatch.Context) error {
		logg.Info("Product event",
			zap.String("kind", string(event.Kind())),
			zap.Int("productId", event.ProductID()),
			zap.String("product", event.ProductName()),
			logField(event.LocationID()))
		return nil
	}
}

// persistCatalogs saves the location's catalog whenever one of its events
// fires. Events of one cycle share a catalog, so repeated saves are cheap
// replacements of the same record.
func persistCatalogs(hub *page.Hub, catalogStore *store.Store) dispatch.Handler {
	return func(ctx context.Context, event *dispatch.Context) error {
		p, ok := hub.Page(event.LocationID())
		if !ok {
			return nil
		}
		return catalogStore.SaveCatalog(p.Catalog())
	}
}

// currentCatalog resolves a location to its current catalog for archiving.
func currentCatalog(hub *page.Hub) func(locationID int) *product.Catalog {
	return func(locationID int) *product.Catalog {
		p, ok := hub.Page(locationID)
		if !ok {
			return nil
		}
		return p.Catalog()
	}
}

// saveAll persists every page's catalog, skipping pages that never fetched.
func saveAll(hub *page.Hub, catalogStore *store.Store, logg *zap.Logger) {
	for _, p := range hub.Pages() {
		catalog := p.Catalog()
		if catalog.Fingerprint() == "" {
			continue
		}
		if err := catalogStore.SaveCatalog(catalog); err != nil {
			logg.Warn("Failed to persist catalog",
				logField(p.LocationID()), zap.Error(err))
		}
	}
}

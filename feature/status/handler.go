package status

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"freshpoint-watch/feature/product"
)

// Handler handles HTTP requests for the watcher status API.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	group := app.Group("/locations")
	group.Get("/", h.HandleLocations)
	group.Get("/:id/products", h.HandleProducts)
	group.Get("/:id/events", h.HandleEvents)
}

// HandleHealth reports liveness and the number of watched locations.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"locations": len(h.service.Locations()),
	})
}

// HandleLocations lists every watched location and its catalog state.
func (h *Handler) HandleLocations(c *fiber.Ctx) error {
	return c.JSON(h.service.Locations())
}

// HandleProducts lists the products of one location. Supports the query
// filters name, category, available, onSale, vegetarian and glutenFree.
func (h *Handler) HandleProducts(c *fiber.Ctx) error {
	locationID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid location id"})
	}

	filter := ProductFilter{
		Name:       c.Query("name"),
		Category:   c.Query("category"),
		Available:  c.QueryBool("available"),
		OnSale:     c.QueryBool("onSale"),
		Vegetarian: c.QueryBool("vegetarian"),
		GlutenFree: c.QueryBool("glutenFree"),
	}

	products, ok := h.service.Products(locationID, filter)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "location not watched"})
	}
	if products == nil {
		products = []product.Snapshot{}
	}
	return c.JSON(products)
}

// HandleEvents returns the recent recorded events of one location. Answers
// 503 when no history database is connected.
func (h *Handler) HandleEvents(c *fiber.Ctx) error {
	locationID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid location id"})
	}
	if !h.service.HistoryEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "event history not enabled"})
	}

	records, err := h.service.History(c.Context(), locationID, c.QueryInt("limit", 50))
	if err != nil {
		h.service.logger.Error("Failed to load event history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load event history"})
	}
	return c.JSON(records)
}

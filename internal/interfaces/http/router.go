package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/stock"
	"github.com/Bobyyy70/speede-flow-engine/internal/application/workflow"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/notify"
	"github.com/Bobyyy70/speede-flow-engine/pkg/metrics"
)

// RouterDeps dépendances du router.
type RouterDeps struct {
	WorkflowUC *workflow.TransitionUseCase
	ReserveUC  *stock.ReserveUseCase
	StockUC    *stock.StockUseCase
	ProductUC  *stock.ProductUseCase
	Broker     *notify.Broker
	JWTSecret  string
	Metrics    *metrics.HTTPMetrics
}

// Router enregistre les routes de l'API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", adaptor.HTTPHandler(metrics.GetPrometheusHandler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Routes protégées (Bearer Token requis)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Moteur de transitions (protégé)
	wf := protected.Group("/workflow/:type")
	workflowHandler := NewWorkflowHandler(deps.WorkflowUC)
	wf.Post("/entities", workflowHandler.CreateEntity)
	wf.Post("/entities/:id/transitions", workflowHandler.Transition)
	wf.Get("/entities/:id/history", workflowHandler.History)
	wf.Get("/statuses/:status/next", workflowHandler.AllowedNext)

	// Flux temps réel (protégé)
	streamHandler := NewStreamHandler(deps.Broker)
	wf.Get("/stream", streamHandler.Stream)

	// Référentiel produit (protégé)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)

	// Grand livre et réservations (protégé)
	st := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.ReserveUC, deps.StockUC)
	st.Post("/reservations", stockHandler.Reserve)
	st.Post("/releases", stockHandler.Release)
	st.Get("/:productId", stockHandler.StockOf)
	st.Get("/:productId/movements", stockHandler.Movements)
	st.Get("/:productId/reconcile", stockHandler.Reconcile)
}

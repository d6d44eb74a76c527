package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/stock"
	"github.com/Bobyyy70/speede-flow-engine/internal/application/workflow"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/notify"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/postgres"
	httpRouter "github.com/Bobyyy70/speede-flow-engine/internal/interfaces/http"
	"github.com/Bobyyy70/speede-flow-engine/pkg/config"
	"github.com/Bobyyy70/speede-flow-engine/pkg/logger"
	"github.com/Bobyyy70/speede-flow-engine/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("charger la configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("démarrage de l'application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connexion à PostgreSQL")
	}
	defer pool.Close()

	// Repos liés au pool : chemins de lecture hors transaction. Les écritures
	// passent par le TxRunner, qui re-crée les repos sur la transaction.
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	entityRepo := postgres.NewTrackedEntityRepository(pool)
	recordRepo := postgres.NewTransitionRecordRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	broker := notify.NewBroker(cfg.Notifier.Buffer, log)

	workflowUC := workflow.NewTransitionUseCase(txRunner, broker, recordRepo, entityRepo, productRepo)
	reserveUC := stock.NewReserveUseCase(txRunner)
	stockUC := stock.NewStockUseCase(stockRepo, movementRepo, productRepo)
	productUC := stock.NewProductUseCase(productRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local : http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Speede Flow Engine API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		WorkflowUC: workflowUC,
		ReserveUC:  reserveUC,
		StockUC:    stockUC,
		ProductUC:  productUC,
		Broker:     broker,
		JWTSecret:  cfg.JWT.Secret,
		Metrics:    metrics.NewHTTPMetrics(cfg.App.Name),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("serveur HTTP terminé")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("signal d'arrêt reçu, fermeture du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("arrêt du serveur")
	}

	log.Info().Msg("application arrêtée")
}

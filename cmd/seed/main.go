// seed insère un jeu de données de démonstration : trois produits, du stock
// physique initial (mouvements de réception), une commande en attente et un
// attendu prévu. Idempotent sur les SKU : relancer ne duplique pas les
// produits.
//
// Usage : go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/postgres"
	"github.com/Bobyyy70/speede-flow-engine/pkg/config"
)

const seedActor = "seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "charger la configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connexion à PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	entityRepo := postgres.NewTrackedEntityRepository(pool)

	now := time.Now().UTC()
	seedProducts := []struct {
		sku      string
		name     string
		physical int64
	}{
		{"SKU-CART-S", "Carton simple cannelure S", 500},
		{"SKU-CART-M", "Carton simple cannelure M", 300},
		{"SKU-FILM-25", "Film étirable 25µm", 80},
	}

	productIDs := make([]string, 0, len(seedProducts))
	for _, sp := range seedProducts {
		existing, err := productRepo.GetBySKU(sp.sku)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lire produit %s: %v\n", sp.sku, err)
			os.Exit(1)
		}
		if existing != nil {
			productIDs = append(productIDs, existing.ID)
			fmt.Printf("produit %s déjà présent, ignoré\n", sp.sku)
			continue
		}

		product := &entity.Product{
			ID:        uuid.New().String(),
			SKU:       sp.sku,
			Name:      sp.name,
			CreatedAt: now,
		}
		if err := productRepo.Create(product); err != nil && !errors.Is(err, domain.ErrDuplicate) {
			fmt.Fprintf(os.Stderr, "créer produit %s: %v\n", sp.sku, err)
			os.Exit(1)
		}
		productIDs = append(productIDs, product.ID)

		qty := decimal.NewFromInt(sp.physical)
		movement := &entity.Movement{
			ID:              uuid.New().String(),
			ProductID:       product.ID,
			QuantityDelta:   qty,
			Kind:            entity.MovementKindReceipt,
			OriginReference: "SEED-INIT",
			CreatedAt:       now,
			CreatedBy:       seedActor,
		}
		if err := movementRepo.Create(movement); err != nil {
			fmt.Fprintf(os.Stderr, "mouvement initial %s: %v\n", sp.sku, err)
			os.Exit(1)
		}
		if err := stockRepo.Upsert(&entity.StockLevel{
			ProductID: product.ID,
			Physical:  qty,
			Reserved:  decimal.Zero,
			UpdatedAt: now,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "agrégat de stock %s: %v\n", sp.sku, err)
			os.Exit(1)
		}
		fmt.Printf("produit %s créé avec %d en stock physique\n", sp.sku, sp.physical)
	}

	orderGraph, _ := status.ForType(status.EntityTypeOrder)
	order := &entity.TrackedEntity{
		ID:            uuid.New().String(),
		Type:          status.EntityTypeOrder,
		CurrentStatus: orderGraph.Initial(),
		Reference:     "CMD-DEMO-001",
		CreatedBy:     seedActor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	orderLines := []*entity.Line{
		{ID: uuid.New().String(), EntityType: order.Type, EntityID: order.ID, ProductID: productIDs[0], Quantity: decimal.NewFromInt(10)},
		{ID: uuid.New().String(), EntityType: order.Type, EntityID: order.ID, ProductID: productIDs[1], Quantity: decimal.NewFromInt(4)},
	}
	if err := entityRepo.Create(order, orderLines); err != nil {
		fmt.Fprintf(os.Stderr, "créer commande démo: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("commande %s créée (%s)\n", order.Reference, order.CurrentStatus)

	shipmentGraph, _ := status.ForType(status.EntityTypeShipment)
	shipment := &entity.TrackedEntity{
		ID:            uuid.New().String(),
		Type:          status.EntityTypeShipment,
		CurrentStatus: shipmentGraph.Initial(),
		Reference:     "ATT-DEMO-001",
		CreatedBy:     seedActor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	shipmentLines := []*entity.Line{
		{ID: uuid.New().String(), EntityType: shipment.Type, EntityID: shipment.ID, ProductID: productIDs[2], Quantity: decimal.NewFromInt(40)},
	}
	if err := entityRepo.Create(shipment, shipmentLines); err != nil {
		fmt.Fprintf(os.Stderr, "créer attendu démo: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("attendu %s créé (%s)\n", shipment.Reference, shipment.CurrentStatus)
}

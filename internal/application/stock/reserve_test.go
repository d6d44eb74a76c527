package stock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/stock"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const testActor = "op-quai-1"

type fixture struct {
	store     *memory.Store
	reserveUC *stock.ReserveUseCase
	stockUC   *stock.StockUseCase
	productID string
}

// newFixture magasin mémoire avec un produit et physical en stock physique.
func newFixture(t *testing.T, physical int64) *fixture {
	t.Helper()

	store := memory.NewStore()
	productRepo := memory.NewProductRepository(store)
	movementRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockRepository(store)

	productID := uuid.New().String()
	require.NoError(t, productRepo.Create(&entity.Product{
		ID:        productID,
		SKU:       "SKU-TEST",
		Name:      "Produit de test",
		CreatedAt: time.Now().UTC(),
	}))

	if physical > 0 {
		qty := decimal.NewFromInt(physical)
		require.NoError(t, movementRepo.Create(&entity.Movement{
			ID:            uuid.New().String(),
			ProductID:     productID,
			QuantityDelta: qty,
			Kind:          entity.MovementKindReceipt,
			CreatedAt:     time.Now().UTC(),
			CreatedBy:     testActor,
		}))
		require.NoError(t, stockRepo.Upsert(&entity.StockLevel{
			ProductID: productID,
			Physical:  qty,
			Reserved:  decimal.Zero,
			UpdatedAt: time.Now().UTC(),
		}))
	}

	return &fixture{
		store:     store,
		reserveUC: stock.NewReserveUseCase(memory.NewTxRunner(store)),
		stockUC:   stock.NewStockUseCase(stockRepo, movementRepo, productRepo),
		productID: productID,
	}
}

func (f *fixture) reserve(t *testing.T, orderID string, qty int64) (*entity.Movement, error) {
	t.Helper()
	return f.reserveUC.Reserve(context.Background(), stock.ReserveInput{
		ProductID:        f.productID,
		Quantity:         decimal.NewFromInt(qty),
		OriginEntityType: status.EntityTypeOrder,
		OriginEntityID:   orderID,
		OriginReference:  "CMD-" + orderID,
		ActorID:          testActor,
	})
}

func (f *fixture) release(t *testing.T, orderID string, qty int64) (*entity.Movement, error) {
	t.Helper()
	return f.reserveUC.Release(context.Background(), stock.ReleaseInput{
		ProductID:        f.productID,
		OriginEntityType: status.EntityTypeOrder,
		OriginEntityID:   orderID,
		Quantity:         decimal.NewFromInt(qty),
		ActorID:          testActor,
	})
}

func (f *fixture) level(t *testing.T) *entity.StockLevel {
	t.Helper()
	level, err := f.stockUC.StockOf(f.productID)
	require.NoError(t, err)
	return level
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserve
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_BloqueLeDisponible(t *testing.T) {
	f := newFixture(t, 100)

	movement, err := f.reserve(t, "cmd-1", 30)
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.Equal(t, entity.MovementKindReservation, movement.Kind)
	assert.True(t, movement.QuantityDelta.Equal(decimal.NewFromInt(30)))

	level := f.level(t)
	assert.True(t, level.Physical.Equal(decimal.NewFromInt(100)), "le physique ne bouge pas à la réservation")
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(30)))
	assert.True(t, level.Available().Equal(decimal.NewFromInt(70)))
}

func TestReserve_DisponibleInsuffisant_RejetSansEffet(t *testing.T) {
	f := newFixture(t, 100)
	_, err := f.reserve(t, "cmd-1", 80)
	require.NoError(t, err)

	// 80 réservés : il reste 20 de disponible, en demander 30 doit échouer.
	_, err = f.reserve(t, "cmd-2", 30)
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, f.productID, insufficient.ProductID)
	assert.True(t, insufficient.Requested.Equal(decimal.NewFromInt(30)))
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(20)))

	// Rejet sans effet de bord : ni mouvement ni agrégat modifié.
	level := f.level(t)
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(80)))
	movements, err := f.stockUC.Movements(f.productID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 2, "réception initiale + première réservation seulement")
}

func TestReserve_ProduitInconnu(t *testing.T) {
	f := newFixture(t, 100)
	_, err := f.reserveUC.Reserve(context.Background(), stock.ReserveInput{
		ProductID:        uuid.New().String(),
		Quantity:         decimal.NewFromInt(1),
		OriginEntityType: status.EntityTypeOrder,
		OriginEntityID:   "cmd-1",
		ActorID:          testActor,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestReserve_QuantiteInvalide(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.reserve(t, "cmd-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.reserve(t, "cmd-1", -5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.reserveUC.Reserve(context.Background(), stock.ReserveInput{
		ProductID:        f.productID,
		Quantity:         decimal.NewFromFloat(2.5),
		OriginEntityType: status.EntityTypeOrder,
		OriginEntityID:   "cmd-1",
		ActorID:          testActor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "les quantités fractionnaires sont refusées")
}

// Deux réservations concurrentes ne peuvent pas survendre : sur 100 de
// disponible, 20 demandes de 10 lancées en parallèle donnent exactement
// 10 succès.
func TestReserve_ConcurrentesSansSurvente(t *testing.T) {
	f := newFixture(t, 100)

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.reserveUC.Reserve(context.Background(), stock.ReserveInput{
				ProductID:        f.productID,
				Quantity:         decimal.NewFromInt(10),
				OriginEntityType: status.EntityTypeOrder,
				OriginEntityID:   uuid.New().String(),
				ActorID:          testActor,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		rejected++
	}
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, rejected)

	level := f.level(t)
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(100)))
	assert.True(t, level.Available().IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Release
// ──────────────────────────────────────────────────────────────────────────────

func TestRelease_LibereToutLeRestant(t *testing.T) {
	f := newFixture(t, 100)
	_, err := f.reserve(t, "cmd-1", 30)
	require.NoError(t, err)

	movement, err := f.release(t, "cmd-1", 0) // zéro = tout
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.Equal(t, entity.MovementKindRelease, movement.Kind)
	assert.True(t, movement.QuantityDelta.Equal(decimal.NewFromInt(-30)))

	level := f.level(t)
	assert.True(t, level.Reserved.IsZero())
	assert.True(t, level.Available().Equal(decimal.NewFromInt(100)))
}

func TestRelease_Partiel_PuisSolde(t *testing.T) {
	f := newFixture(t, 100)
	_, err := f.reserve(t, "cmd-1", 30)
	require.NoError(t, err)

	movement, err := f.release(t, "cmd-1", 10)
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.True(t, movement.QuantityDelta.Equal(decimal.NewFromInt(-10)))
	assert.True(t, f.level(t).Reserved.Equal(decimal.NewFromInt(20)))

	// Demander plus que le restant libère au plus le restant.
	movement, err = f.release(t, "cmd-1", 50)
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.True(t, movement.QuantityDelta.Equal(decimal.NewFromInt(-20)))
	assert.True(t, f.level(t).Reserved.IsZero())
}

// Re-libérer une réservation déjà soldée est un no-op, pas une erreur :
// les workflows appelants livrent at-least-once.
func TestRelease_Idempotent(t *testing.T) {
	f := newFixture(t, 100)
	_, err := f.reserve(t, "cmd-1", 30)
	require.NoError(t, err)

	first, err := f.release(t, "cmd-1", 0)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.release(t, "cmd-1", 0)
	require.NoError(t, err)
	assert.Nil(t, second, "re-libération = no-op")

	level := f.level(t)
	assert.True(t, level.Reserved.IsZero(), "le réservé ne descend jamais sous zéro")

	movements, err := f.stockUC.Movements(f.productID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 3, "réception + réservation + une seule libération")
}

func TestRelease_SansReservationPrealable_NoOp(t *testing.T) {
	f := newFixture(t, 100)

	movement, err := f.release(t, "cmd-jamais-vue", 0)
	require.NoError(t, err)
	assert.Nil(t, movement)
	assert.True(t, f.level(t).Reserved.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Agrégat vs rejeu du grand livre
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_AgregatEgalAuRejeu(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.reserve(t, "cmd-1", 30)
	require.NoError(t, err)
	_, err = f.reserve(t, "cmd-2", 20)
	require.NoError(t, err)
	_, err = f.release(t, "cmd-1", 10)
	require.NoError(t, err)

	equal, cached, replayed, err := f.stockUC.Reconcile(f.productID)
	require.NoError(t, err)
	assert.True(t, equal, "l'agrégat matérialisé doit égaler le rejeu du grand livre")
	assert.True(t, cached.Physical.Equal(replayed.Physical))
	assert.True(t, cached.Reserved.Equal(replayed.Reserved))
	assert.True(t, replayed.Reserved.Equal(decimal.NewFromInt(40)))
	assert.True(t, replayed.Physical.Equal(decimal.NewFromInt(100)))
}

func TestStockOf_ProduitSansMouvement_AgregatZero(t *testing.T) {
	f := newFixture(t, 0)

	level := f.level(t)
	assert.True(t, level.Physical.IsZero())
	assert.True(t, level.Reserved.IsZero())
	assert.True(t, level.Available().IsZero())
}

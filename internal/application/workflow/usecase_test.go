package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstock "github.com/Bobyyy70/speede-flow-engine/internal/application/stock"
	"github.com/Bobyyy70/speede-flow-engine/internal/application/workflow"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const testActor = "op-expedition-2"

// fakeNotifier capture les publications dans l'ordre d'émission.
type fakeNotifier struct {
	mu      sync.Mutex
	records []*entity.TransitionRecord
}

func (n *fakeNotifier) Publish(record *entity.TransitionRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, record)
}

func (n *fakeNotifier) published() []*entity.TransitionRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*entity.TransitionRecord(nil), n.records...)
}

type fixture struct {
	store     *memory.Store
	uc        *workflow.TransitionUseCase
	stockUC   *appstock.StockUseCase
	reserveUC *appstock.ReserveUseCase
	notifier  *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)
	notifier := &fakeNotifier{}

	productRepo := memory.NewProductRepository(store)
	movementRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockRepository(store)
	entityRepo := memory.NewTrackedEntityRepository(store)
	recordRepo := memory.NewTransitionRecordRepository(store)

	return &fixture{
		store:     store,
		uc:        workflow.NewTransitionUseCase(txRunner, notifier, recordRepo, entityRepo, productRepo),
		stockUC:   appstock.NewStockUseCase(stockRepo, movementRepo, productRepo),
		reserveUC: appstock.NewReserveUseCase(txRunner),
		notifier:  notifier,
	}
}

// newProduct crée un produit avec physical en stock physique initial.
func (f *fixture) newProduct(t *testing.T, physical int64) string {
	t.Helper()
	productID := uuid.New().String()
	require.NoError(t, memory.NewProductRepository(f.store).Create(&entity.Product{
		ID:        productID,
		SKU:       "SKU-" + productID[:8],
		Name:      "Produit de test",
		CreatedAt: time.Now().UTC(),
	}))
	if physical > 0 {
		qty := decimal.NewFromInt(physical)
		require.NoError(t, memory.NewMovementRepository(f.store).Create(&entity.Movement{
			ID:            uuid.New().String(),
			ProductID:     productID,
			QuantityDelta: qty,
			Kind:          entity.MovementKindReceipt,
			CreatedAt:     time.Now().UTC(),
			CreatedBy:     testActor,
		}))
		require.NoError(t, memory.NewStockRepository(f.store).Upsert(&entity.StockLevel{
			ProductID: productID,
			Physical:  qty,
			Reserved:  decimal.Zero,
			UpdatedAt: time.Now().UTC(),
		}))
	}
	return productID
}

// newEntity crée une entité au statut initial de sa famille, avec une ligne.
func (f *fixture) newEntity(t *testing.T, entityType status.EntityType, productID string, qty int64) *entity.TrackedEntity {
	t.Helper()
	ent, err := f.uc.CreateEntity(context.Background(), workflow.CreateEntityInput{
		Type:      entityType,
		Reference: "REF-TEST",
		ActorID:   testActor,
		Lines: []workflow.LineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(qty)},
		},
	})
	require.NoError(t, err)
	return ent
}

func (f *fixture) transition(t *testing.T, ent *entity.TrackedEntity, target status.Status) (*entity.TransitionRecord, error) {
	t.Helper()
	return f.uc.Transition(context.Background(), workflow.TransitionInput{
		Type:     ent.Type,
		EntityID: ent.ID,
		Target:   target,
		ActorID:  testActor,
	})
}

// mustTransition enchaîne des transitions légales.
func (f *fixture) mustTransition(t *testing.T, ent *entity.TrackedEntity, targets ...status.Status) {
	t.Helper()
	for _, target := range targets {
		_, err := f.transition(t, ent, target)
		require.NoError(t, err, "transition vers %s", target)
	}
}

func (f *fixture) level(t *testing.T, productID string) *entity.StockLevel {
	t.Helper()
	level, err := f.stockUC.StockOf(productID)
	require.NoError(t, err)
	return level
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateEntity
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateEntity_StatutInitialDeLaFamille(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 0)

	shipment := f.newEntity(t, status.EntityTypeShipment, productID, 5)
	assert.Equal(t, status.ShipmentPlanned, shipment.CurrentStatus)

	order := f.newEntity(t, status.EntityTypeOrder, productID, 5)
	assert.Equal(t, status.OrderPending, order.CurrentStatus)

	ret := f.newEntity(t, status.EntityTypeReturn, productID, 5)
	assert.Equal(t, status.ReturnAnnounced, ret.CurrentStatus)
}

func TestCreateEntity_ProduitInconnu_Rejete(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateEntity(context.Background(), workflow.CreateEntityInput{
		Type:      status.EntityTypeOrder,
		Reference: "CMD-X",
		ActorID:   testActor,
		Lines: []workflow.LineInput{
			{ProductID: uuid.New().String(), Quantity: decimal.NewFromInt(1)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCreateEntity_SansLigne_Rejete(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateEntity(context.Background(), workflow.CreateEntityInput{
		Type:      status.EntityTypeOrder,
		Reference: "CMD-X",
		ActorID:   testActor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transition
// ──────────────────────────────────────────────────────────────────────────────

func TestTransition_Legale_EcritLaTrace(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 0)
	shipment := f.newEntity(t, status.EntityTypeShipment, productID, 5)

	record, err := f.uc.Transition(context.Background(), workflow.TransitionInput{
		Type:     status.EntityTypeShipment,
		EntityID: shipment.ID,
		Target:   status.ShipmentInTransit,
		ActorID:  testActor,
		Reason:   "départ transporteur",
		Metadata: map[string]string{"transporteur": "GLS"},
	})
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, status.ShipmentPlanned, record.FromStatus)
	assert.Equal(t, status.ShipmentInTransit, record.ToStatus)
	assert.Equal(t, testActor, record.ActorID)
	assert.Equal(t, "départ transporteur", record.Reason)
	assert.Positive(t, record.Seq)

	history, err := f.uc.History(status.EntityTypeShipment, shipment.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
}

func TestTransition_Illegale_RejetSansEffet(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 0)
	shipment := f.newEntity(t, status.EntityTypeShipment, productID, 5)

	// prévu → réceptionné_totalement n'est pas une arête du graphe.
	_, err := f.transition(t, shipment, status.ShipmentFullyReceived)
	require.Error(t, err)

	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, status.ShipmentPlanned, illegal.From)
	assert.Equal(t, status.ShipmentFullyReceived, illegal.To)
	assert.ElementsMatch(t, []status.Status{status.ShipmentInTransit, status.ShipmentCancelled}, illegal.Allowed)

	// Rien n'a bougé : ni statut, ni historique.
	current, err := memory.NewTrackedEntityRepository(f.store).GetByID(status.EntityTypeShipment, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, status.ShipmentPlanned, current.CurrentStatus)

	history, err := f.uc.History(status.EntityTypeShipment, shipment.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.notifier.published(), "aucune publication pour un rejet")
}

func TestTransition_EntiteInconnue(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Transition(context.Background(), workflow.TransitionInput{
		Type:     status.EntityTypeOrder,
		EntityID: uuid.New().String(),
		Target:   status.OrderPicking,
		ActorID:  testActor,
	})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestTransition_HistoriqueOrdonneParSeq(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 0)
	shipment := f.newEntity(t, status.EntityTypeShipment, productID, 5)

	f.mustTransition(t, shipment,
		status.ShipmentInTransit,
		status.ShipmentArrived,
		status.ShipmentReceiving,
	)

	history, err := f.uc.History(status.EntityTypeShipment, shipment.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, status.ShipmentInTransit, history[0].ToStatus)
	assert.Equal(t, status.ShipmentArrived, history[1].ToStatus)
	assert.Equal(t, status.ShipmentReceiving, history[2].ToStatus)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].Seq, history[i-1].Seq, "Seq strictement croissant")
		assert.Equal(t, history[i-1].ToStatus, history[i].FromStatus, "chaînage from/to continu")
	}
}

// Les publications suivent l'ordre de commit et n'arrivent qu'après commit.
func TestTransition_NotifieApresCommitDansLOrdre(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 0)
	shipment := f.newEntity(t, status.EntityTypeShipment, productID, 5)

	f.mustTransition(t, shipment, status.ShipmentInTransit, status.ShipmentArrived)

	published := f.notifier.published()
	require.Len(t, published, 2)
	assert.Equal(t, status.ShipmentInTransit, published[0].ToStatus)
	assert.Equal(t, status.ShipmentArrived, published[1].ToStatus)
	assert.Positive(t, published[0].Seq, "seules des transitions commitées sont publiées")
}

// ──────────────────────────────────────────────────────────────────────────────
// AllowedNext / History
// ──────────────────────────────────────────────────────────────────────────────

func TestAllowedNext_TerminalRendEnsembleVide(t *testing.T) {
	f := newFixture(t)

	next, err := f.uc.AllowedNext(status.EntityTypeOrder, status.OrderClosed)
	require.NoError(t, err)
	assert.Empty(t, next)

	_, err = f.uc.AllowedNext(status.EntityTypeOrder, status.Status("inexistant"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistory_EntiteInconnue(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.History(status.EntityTypeOrder, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Effets de stock couplés aux transitions
// ──────────────────────────────────────────────────────────────────────────────

// Expédier une commande réservée convertit la réservation en sortie physique.
func TestTransition_CommandeExpediee_SoldeLaReservation(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 100)
	order := f.newEntity(t, status.EntityTypeOrder, productID, 10)

	_, err := f.reserveUC.Reserve(context.Background(), appstock.ReserveInput{
		ProductID:        productID,
		Quantity:         decimal.NewFromInt(10),
		OriginEntityType: status.EntityTypeOrder,
		OriginEntityID:   order.ID,
		ActorID:          testActor,
	})
	require.NoError(t, err)
	require.True(t, f.level(t, productID).Reserved.Equal(decimal.NewFromInt(10)))

	f.mustTransition(t, order,
		status.OrderPicking,
		status.OrderPicked,
		status.OrderShipped,
	)

	level := f.level(t, productID)
	assert.True(t, level.Physical.Equal(decimal.NewFromInt(90)), "le physique baisse de la quantité expédiée")
	assert.True(t, level.Reserved.IsZero(), "la réservation est soldée par l'expédition")

	// Le grand livre porte release et shipment, et le rejeu reste cohérent.
	equal, _, replayed, err := f.stockUC.Reconcile(productID)
	require.NoError(t, err)
	assert.True(t, equal)
	assert.True(t, replayed.Physical.Equal(decimal.NewFromInt(90)))
}

// Expédier sans réservation revérifie le disponible sous verrou.
func TestTransition_CommandeExpediee_SansStock_RejetSansEffet(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 5)
	order := f.newEntity(t, status.EntityTypeOrder, productID, 10)

	f.mustTransition(t, order, status.OrderPicking, status.OrderPicked)

	_, err := f.transition(t, order, status.OrderShipped)
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	// La transition entière est annulée : statut et stock inchangés.
	current, err := memory.NewTrackedEntityRepository(f.store).GetByID(status.EntityTypeOrder, order.ID)
	require.NoError(t, err)
	assert.Equal(t, status.OrderPicked, current.CurrentStatus)
	assert.True(t, f.level(t, productID).Physical.Equal(decimal.NewFromInt(5)))
}

// Réception totale d'un attendu : le physique augmente des lignes.
func TestTransition_AttenduReceptionne_EntreeEnStock(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 0)
	shipment := f.newEntity(t, status.EntityTypeShipment, productID, 40)

	f.mustTransition(t, shipment,
		status.ShipmentInTransit,
		status.ShipmentArrived,
		status.ShipmentReceiving,
		status.ShipmentFullyReceived,
	)

	level := f.level(t, productID)
	assert.True(t, level.Physical.Equal(decimal.NewFromInt(40)))
	assert.True(t, level.Reserved.IsZero())
}

// Remise en stock d'un retour contrôlé : entrée physique.
func TestTransition_RetourRemisEnStock_EntreeEnStock(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 10)
	ret := f.newEntity(t, status.EntityTypeReturn, productID, 3)

	f.mustTransition(t, ret,
		status.ReturnReceived,
		status.ReturnInspecting,
		status.ReturnRestocked,
	)

	assert.True(t, f.level(t, productID).Physical.Equal(decimal.NewFromInt(13)))
}

// L'annulation ne libère rien : le release reste un appel explicite.
func TestTransition_CommandeAnnulee_NeLiberePasLaReservation(t *testing.T) {
	f := newFixture(t)
	productID := f.newProduct(t, 100)
	order := f.newEntity(t, status.EntityTypeOrder, productID, 10)

	_, err := f.reserveUC.Reserve(context.Background(), appstock.ReserveInput{
		ProductID:        productID,
		Quantity:         decimal.NewFromInt(10),
		OriginEntityType: status.EntityTypeOrder,
		OriginEntityID:   order.ID,
		ActorID:          testActor,
	})
	require.NoError(t, err)

	f.mustTransition(t, order, status.OrderCancelled)
	assert.True(t, f.level(t, productID).Reserved.Equal(decimal.NewFromInt(10)),
		"l'annulation seule ne touche pas au réservé")

	// La libération vient de l'appelant.
	_, err = f.reserveUC.Release(context.Background(), appstock.ReleaseInput{
		ProductID:        productID,
		OriginEntityType: status.EntityTypeOrder,
		OriginEntityID:   order.ID,
		ActorID:          testActor,
	})
	require.NoError(t, err)
	assert.True(t, f.level(t, productID).Reserved.IsZero())
}

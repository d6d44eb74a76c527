package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/notify"
)

func record(seq int64, t status.EntityType, to status.Status) *entity.TransitionRecord {
	return &entity.TransitionRecord{
		ID:         "rec",
		Seq:        seq,
		EntityType: t,
		EntityID:   "ent-1",
		FromStatus: "x",
		ToStatus:   to,
		ActorID:    "op",
		OccurredAt: time.Now().UTC(),
	}
}

// receive lit un enregistrement avec timeout, pour ne pas bloquer le test.
func receive(t *testing.T, sub *notify.Subscription) *entity.TransitionRecord {
	t.Helper()
	select {
	case rec, ok := <-sub.C:
		require.True(t, ok, "le canal ne doit pas être fermé")
		return rec
	case <-time.After(time.Second):
		t.Fatal("aucune notification reçue")
		return nil
	}
}

func TestBroker_LivreDansLOrdreDePublication(t *testing.T) {
	b := notify.NewBroker(8, nil)
	sub := b.Subscribe(status.EntityTypeShipment)
	defer sub.Close()

	b.Publish(record(1, status.EntityTypeShipment, status.ShipmentInTransit))
	b.Publish(record(2, status.EntityTypeShipment, status.ShipmentArrived))

	assert.Equal(t, status.ShipmentInTransit, receive(t, sub).ToStatus)
	assert.Equal(t, status.ShipmentArrived, receive(t, sub).ToStatus)
}

// Un abonné ne reçoit que les transitions de sa famille.
func TestBroker_FiltreParFamille(t *testing.T) {
	b := notify.NewBroker(8, nil)
	orders := b.Subscribe(status.EntityTypeOrder)
	defer orders.Close()

	b.Publish(record(1, status.EntityTypeShipment, status.ShipmentInTransit))
	b.Publish(record(2, status.EntityTypeOrder, status.OrderPicking))

	assert.Equal(t, status.OrderPicking, receive(t, orders).ToStatus)
	select {
	case rec := <-orders.C:
		t.Fatalf("notification inattendue: %v", rec.ToStatus)
	default:
	}
}

func TestBroker_PlusieursAbonnesMemeFamille(t *testing.T) {
	b := notify.NewBroker(8, nil)
	first := b.Subscribe(status.EntityTypeReturn)
	defer first.Close()
	second := b.Subscribe(status.EntityTypeReturn)
	defer second.Close()

	b.Publish(record(1, status.EntityTypeReturn, status.ReturnReceived))

	assert.Equal(t, status.ReturnReceived, receive(t, first).ToStatus)
	assert.Equal(t, status.ReturnReceived, receive(t, second).ToStatus)
}

// Un abonné saturé n'est jamais bloquant : la publication est abandonnée et
// Publish rend la main.
func TestBroker_AbonneSature_PublicationAbandonnee(t *testing.T) {
	b := notify.NewBroker(1, nil)
	sub := b.Subscribe(status.EntityTypeOrder)
	defer sub.Close()

	b.Publish(record(1, status.EntityTypeOrder, status.OrderPicking))

	done := make(chan struct{})
	go func() {
		// Canal plein : doit revenir immédiatement sans livrer.
		b.Publish(record(2, status.EntityTypeOrder, status.OrderPicked))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish a bloqué sur un abonné saturé")
	}

	assert.Equal(t, status.OrderPicking, receive(t, sub).ToStatus)
}

func TestBroker_CloseDesabonneEtFermeLeCanal(t *testing.T) {
	b := notify.NewBroker(8, nil)
	sub := b.Subscribe(status.EntityTypeShipment)

	sub.Close()
	sub.Close() // double Close sans panique

	_, ok := <-sub.C
	assert.False(t, ok, "le canal doit être fermé")

	// Publier après Close ne panique pas et ne livre rien.
	b.Publish(record(1, status.EntityTypeShipment, status.ShipmentInTransit))
}

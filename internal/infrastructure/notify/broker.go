package notify

import (
	"sync"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
	"github.com/Bobyyy70/speede-flow-engine/pkg/logger"
	"github.com/Bobyyy70/speede-flow-engine/pkg/metrics"
)

// Broker fan-out en mémoire des transitions commitées, un flux par famille
// d'entité. Best-effort : une publication vers un abonné saturé est
// abandonnée (et comptée), jamais bloquante — l'abonné se réconcilie via le
// magasin d'historique à la reconnexion. L'ordre de livraison vers un même
// abonné suit l'ordre de publication ; aucune garantie inter-abonnés.
type Broker struct {
	mu     sync.Mutex
	subs   map[status.EntityType]map[uint64]*Subscription
	nextID uint64
	buffer int
	log    *logger.Logger
}

// NewBroker construit le broker. buffer est la profondeur du canal de chaque
// abonné (minimum 1).
func NewBroker(buffer int, log *logger.Logger) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{
		subs:   make(map[status.EntityType]map[uint64]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

// Subscription abonnement vivant à un flux de transitions.
// C est fermé par Close ; toujours appeler Close pour libérer l'abonnement.
type Subscription struct {
	C <-chan *entity.TransitionRecord

	broker     *Broker
	entityType status.EntityType
	id         uint64
	ch         chan *entity.TransitionRecord
	closeOnce  sync.Once
}

// Close désabonne et ferme le canal.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.broker.unsubscribe(s.entityType, s.id)
		close(s.ch)
	})
}

// Subscribe ouvre un abonnement au flux d'une famille d'entité.
func (b *Broker) Subscribe(t status.EntityType) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	ch := make(chan *entity.TransitionRecord, b.buffer)
	sub := &Subscription{
		C:          ch,
		broker:     b,
		entityType: t,
		id:         b.nextID,
		ch:         ch,
	}
	if b.subs[t] == nil {
		b.subs[t] = make(map[uint64]*Subscription)
	}
	b.subs[t][sub.id] = sub
	return sub
}

// Publish diffuse une transition commitée aux abonnés de sa famille.
// N'échoue jamais et ne bloque jamais l'appel d'origine : un canal plein vaut
// abandon, loggé et compté.
func (b *Broker) Publish(record *entity.TransitionRecord) {
	if record == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[record.EntityType] {
		select {
		case sub.ch <- record:
		default:
			metrics.NotificationsDroppedTotal.WithLabelValues(string(record.EntityType)).Inc()
			if b.log != nil {
				b.log.Warn().
					Str("entity_type", string(record.EntityType)).
					Str("entity_id", record.EntityID).
					Str("to_status", string(record.ToStatus)).
					Msg("abonné saturé, notification abandonnée")
			}
		}
	}
}

func (b *Broker) unsubscribe(t status.EntityType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[t], id)
}

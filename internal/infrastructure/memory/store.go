// Package memory implémente les ports de persistance en mémoire, pour les
// tests et le prototypage. Les transactions sont simulées par un verrou
// global plus un snapshot : un rollback restaure l'état d'avant la fonction,
// donc un rejet reste sans effet de bord observable, comme en SQL.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// Store état partagé de tous les repos mémoire. Les valeurs stockées sont des
// clones : rien de ce que rend un repo n'aliase l'état interne.
type Store struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	levels    map[string]*entity.StockLevel
	entities  map[string]*entity.TrackedEntity
	lines     map[string][]*entity.Line
	movements []*entity.Movement
	records   []*entity.TransitionRecord
	nextSeq   int64
}

// NewStore construit un magasin vide.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		levels:   make(map[string]*entity.StockLevel),
		entities: make(map[string]*entity.TrackedEntity),
		lines:    make(map[string][]*entity.Line),
	}
}

func entityKey(t status.EntityType, id string) string {
	return string(t) + "/" + id
}

// snapshot copie restaurable de l'état. Les valeurs étant clonées à chaque
// écriture, une copie superficielle des maps suffit.
type snapshot struct {
	products  map[string]*entity.Product
	levels    map[string]*entity.StockLevel
	entities  map[string]*entity.TrackedEntity
	lines     map[string][]*entity.Line
	movements int
	records   int
	nextSeq   int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products:  make(map[string]*entity.Product, len(s.products)),
		levels:    make(map[string]*entity.StockLevel, len(s.levels)),
		entities:  make(map[string]*entity.TrackedEntity, len(s.entities)),
		lines:     make(map[string][]*entity.Line, len(s.lines)),
		movements: len(s.movements),
		records:   len(s.records),
		nextSeq:   s.nextSeq,
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.levels {
		snap.levels[k] = v
	}
	for k, v := range s.entities {
		snap.entities[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.levels = snap.levels
	s.entities = snap.entities
	s.lines = snap.lines
	s.movements = s.movements[:snap.movements]
	s.records = s.records[:snap.records]
	s.nextSeq = snap.nextSeq
}

// --- Écritures et lectures non verrouillées (appelées sous s.mu) ---

func (s *Store) createProduct(p *entity.Product) error {
	if _, ok := s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	clone := *p
	s.products[p.ID] = &clone
	return nil
}

func (s *Store) productByID(id string) *entity.Product {
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	clone := *p
	return &clone
}

func (s *Store) productBySKU(sku string) *entity.Product {
	for _, p := range s.products {
		if p.SKU == sku {
			clone := *p
			return &clone
		}
	}
	return nil
}

func (s *Store) levelOf(productID string) *entity.StockLevel {
	level, ok := s.levels[productID]
	if !ok {
		return &entity.StockLevel{
			ProductID: productID,
			Physical:  decimal.Zero,
			Reserved:  decimal.Zero,
		}
	}
	clone := *level
	return &clone
}

func (s *Store) upsertLevel(level *entity.StockLevel) {
	clone := *level
	s.levels[level.ProductID] = &clone
}

func (s *Store) appendMovement(m *entity.Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	clone := *m
	s.movements = append(s.movements, &clone)
	return nil
}

func (s *Store) createEntity(e *entity.TrackedEntity, lines []*entity.Line) error {
	key := entityKey(e.Type, e.ID)
	if _, ok := s.entities[key]; ok {
		return domain.ErrDuplicate
	}
	clone := *e
	s.entities[key] = &clone
	cloned := make([]*entity.Line, len(lines))
	for i, line := range lines {
		c := *line
		cloned[i] = &c
	}
	s.lines[key] = cloned
	return nil
}

func (s *Store) entityByKey(t status.EntityType, id string) *entity.TrackedEntity {
	e, ok := s.entities[entityKey(t, id)]
	if !ok {
		return nil
	}
	clone := *e
	return &clone
}

func (s *Store) appendRecord(rec *entity.TransitionRecord) {
	s.nextSeq++
	clone := *rec
	clone.Seq = s.nextSeq
	rec.Seq = s.nextSeq
	s.records = append(s.records, &clone)
}

// --- Repos verrouillés, utilisables hors transaction ---

// ProductRepo implémentation mémoire de repository.ProductRepository.
type ProductRepo struct {
	s      *Store
	noLock bool
}

// NewProductRepository repo produits lié au magasin.
func NewProductRepository(s *Store) *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) lock() func() {
	if r.noLock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *ProductRepo) Create(product *entity.Product) error {
	defer r.lock()()
	return r.s.createProduct(product)
}

func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	defer r.lock()()
	return r.s.productByID(id), nil
}

func (r *ProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	defer r.lock()()
	return r.s.productBySKU(sku), nil
}

// StockRepo implémentation mémoire de repository.StockRepository.
type StockRepo struct {
	s      *Store
	noLock bool
}

// NewStockRepository repo d'agrégat lié au magasin.
func NewStockRepository(s *Store) *StockRepo { return &StockRepo{s: s} }

func (r *StockRepo) lock() func() {
	if r.noLock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *StockRepo) Get(productID string) (*entity.StockLevel, error) {
	defer r.lock()()
	return r.s.levelOf(productID), nil
}

// GetForUpdate équivaut à Get : la section critique est déjà assurée par le
// verrou global du TxRunner mémoire.
func (r *StockRepo) GetForUpdate(productID string) (*entity.StockLevel, error) {
	defer r.lock()()
	return r.s.levelOf(productID), nil
}

func (r *StockRepo) Upsert(level *entity.StockLevel) error {
	defer r.lock()()
	r.s.upsertLevel(level)
	return nil
}

// MovementRepo implémentation mémoire de repository.MovementRepository.
type MovementRepo struct {
	s      *Store
	noLock bool
}

// NewMovementRepository repo du grand livre lié au magasin.
func NewMovementRepository(s *Store) *MovementRepo { return &MovementRepo{s: s} }

func (r *MovementRepo) lock() func() {
	if r.noLock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *MovementRepo) Create(movement *entity.Movement) error {
	defer r.lock()()
	return r.s.appendMovement(movement)
}

func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	defer r.lock()()
	for _, m := range r.s.movements {
		if m.ID == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.Movement, error) {
	defer r.lock()()
	var out []*entity.Movement
	// Les plus récents d'abord, comme le repo SQL.
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].ProductID != productID {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		clone := *r.s.movements[i]
		out = append(out, &clone)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MovementRepo) ListByOrigin(entityType status.EntityType, entityID string) ([]*entity.Movement, error) {
	defer r.lock()()
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if m.OriginEntityType == entityType && m.OriginEntityID == entityID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *MovementRepo) Replay(productID string) (physical, reserved decimal.Decimal, err error) {
	defer r.lock()()
	physical, reserved = decimal.Zero, decimal.Zero
	for _, m := range r.s.movements {
		if m.ProductID != productID {
			continue
		}
		if m.AffectsPhysical() {
			physical = physical.Add(m.QuantityDelta)
		}
		if m.AffectsReserved() {
			reserved = reserved.Add(m.QuantityDelta)
		}
	}
	return physical, reserved, nil
}

func (r *MovementRepo) OutstandingReservation(productID, originEntityID string) (decimal.Decimal, error) {
	defer r.lock()()
	sum := decimal.Zero
	for _, m := range r.s.movements {
		if m.ProductID != productID || m.OriginEntityID != originEntityID {
			continue
		}
		if m.Kind == entity.MovementKindReservation || m.Kind == entity.MovementKindRelease {
			sum = sum.Add(m.QuantityDelta)
		}
	}
	return sum, nil
}

// TrackedEntityRepo implémentation mémoire de repository.TrackedEntityRepository.
type TrackedEntityRepo struct {
	s      *Store
	noLock bool
}

// NewTrackedEntityRepository repo d'entités suivies lié au magasin.
func NewTrackedEntityRepository(s *Store) *TrackedEntityRepo { return &TrackedEntityRepo{s: s} }

func (r *TrackedEntityRepo) lock() func() {
	if r.noLock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *TrackedEntityRepo) Create(e *entity.TrackedEntity, lines []*entity.Line) error {
	defer r.lock()()
	return r.s.createEntity(e, lines)
}

func (r *TrackedEntityRepo) GetByID(entityType status.EntityType, id string) (*entity.TrackedEntity, error) {
	defer r.lock()()
	return r.s.entityByKey(entityType, id), nil
}

func (r *TrackedEntityRepo) GetForUpdate(entityType status.EntityType, id string) (*entity.TrackedEntity, error) {
	defer r.lock()()
	return r.s.entityByKey(entityType, id), nil
}

func (r *TrackedEntityRepo) UpdateStatus(entityType status.EntityType, id string, newStatus status.Status, updatedAt time.Time) error {
	defer r.lock()()
	key := entityKey(entityType, id)
	e, ok := r.s.entities[key]
	if !ok {
		return domain.ErrEntityNotFound
	}
	clone := *e
	clone.CurrentStatus = newStatus
	clone.UpdatedAt = updatedAt
	r.s.entities[key] = &clone
	return nil
}

func (r *TrackedEntityRepo) ListLines(entityType status.EntityType, id string) ([]*entity.Line, error) {
	defer r.lock()()
	lines := r.s.lines[entityKey(entityType, id)]
	out := make([]*entity.Line, len(lines))
	for i, line := range lines {
		clone := *line
		out[i] = &clone
	}
	return out, nil
}

// TransitionRecordRepo implémentation mémoire de repository.TransitionRecordRepository.
type TransitionRecordRepo struct {
	s      *Store
	noLock bool
}

// NewTransitionRecordRepository magasin d'historique lié au magasin.
func NewTransitionRecordRepository(s *Store) *TransitionRecordRepo {
	return &TransitionRecordRepo{s: s}
}

func (r *TransitionRecordRepo) lock() func() {
	if r.noLock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *TransitionRecordRepo) Create(record *entity.TransitionRecord) error {
	defer r.lock()()
	r.s.appendRecord(record)
	return nil
}

func (r *TransitionRecordRepo) ListByEntity(entityType status.EntityType, entityID string) ([]*entity.TransitionRecord, error) {
	defer r.lock()()
	var out []*entity.TransitionRecord
	for _, rec := range r.s.records {
		if rec.EntityType == entityType && rec.EntityID == entityID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

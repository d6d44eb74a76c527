package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel agrégat de stock d'un produit, matérialisé à partir du grand
// livre (mis à jour dans la même transaction que chaque append de mouvement).
// Le rejeu du grand livre reste la vérité ; cette ligne n'est qu'un cache qui
// doit s'y réconcilier, jamais l'inverse.
// Créé paresseusement au premier mouvement du produit.
type StockLevel struct {
	ProductID string
	Physical  decimal.Decimal
	Reserved  decimal.Decimal
	UpdatedAt time.Time
}

// Available quantité promettable : physique − réservé.
// Le physique seul ne doit jamais être lu comme promettable.
func (s *StockLevel) Available() decimal.Decimal {
	return s.Physical.Sub(s.Reserved)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/dto"
	"github.com/Bobyyy70/speede-flow-engine/internal/application/stock"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// StockHandler requêtes HTTP du grand livre et des réservations (protégé).
type StockHandler struct {
	reserveUC *stock.ReserveUseCase
	stockUC   *stock.StockUseCase
}

// NewStockHandler construit le handler.
func NewStockHandler(reserveUC *stock.ReserveUseCase, stockUC *stock.StockUseCase) *StockHandler {
	return &StockHandler{reserveUC: reserveUC, stockUC: stockUC}
}

// Reserve godoc
// @Summary      Réserver du stock sur le disponible d'un produit
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "product_id, quantity, origin_entity_*"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/reservations [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	originType, ok := status.ParseEntityType(in.OriginEntityType)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "origin_entity_type inconnu"})
	}
	movement, err := h.reserveUC.Reserve(c.Context(), stock.ReserveInput{
		ProductID:        in.ProductID,
		Quantity:         in.Quantity,
		OriginEntityType: originType,
		OriginEntityID:   in.OriginEntityID,
		OriginReference:  in.OriginReference,
		ActorID:          actorID,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(movement))
}

// Release godoc
// @Summary      Libérer une réservation (idempotent)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReleaseRequest  true  "product_id, origin_entity_*, quantity (0 = tout)"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/releases [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var in dto.ReleaseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	originType, ok := status.ParseEntityType(in.OriginEntityType)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "origin_entity_type inconnu"})
	}
	movement, err := h.reserveUC.Release(c.Context(), stock.ReleaseInput{
		ProductID:        in.ProductID,
		OriginEntityType: originType,
		OriginEntityID:   in.OriginEntityID,
		Quantity:         in.Quantity,
		OriginReference:  in.OriginReference,
		ActorID:          actorID,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	if movement == nil {
		// Réservation déjà soldée : no-op, pas une erreur.
		return c.JSON(fiber.Map{"released": false, "message": "aucune réservation restante"})
	}
	return c.JSON(fiber.Map{"released": true, "movement": dto.NewMovementResponse(movement)})
}

// StockOf godoc
// @Summary      Agrégat courant {physique, réservé, disponible} d'un produit
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID du produit"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId} [get]
func (h *StockHandler) StockOf(c *fiber.Ctx) error {
	level, err := h.stockUC.StockOf(c.Params("productId"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.NewStockLevelResponse(level))
}

// Movements godoc
// @Summary      Page du grand livre de mouvements d'un produit
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID du produit"
// @Param        limit      query  int     false  "max 500, défaut 50"
// @Param        offset     query  int     false  "défaut 0"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "pagination invalide"})
	}
	page.DefaultPage()
	movements, err := h.stockUC.Movements(c.Params("productId"), page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.NewMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// Reconcile godoc
// @Summary      Comparer l'agrégat matérialisé au rejeu du grand livre
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID du produit"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId}/reconcile [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if _, err := h.stockUC.StockOf(productID); err != nil {
		return writeDomainError(c, err)
	}
	equal, cached, replayed, err := h.stockUC.Reconcile(productID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"equal":    equal,
		"cached":   dto.NewStockLevelResponse(cached),
		"replayed": dto.NewStockLevelResponse(replayed),
	})
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/dto"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
)

// writeDomainError mappe les erreurs de domaine vers des réponses HTTP typées.
// "Transition illégale" (bug de workflow/UI : l'action n'aurait pas dû être
// proposée) et "stock insuffisant" (condition métier demandant une décision)
// gardent des codes distincts, jamais un message générique commun.
func writeDomainError(c *fiber.Ctx, err error) error {
	var illegal *domain.IllegalTransitionError
	if errors.As(err, &illegal) {
		allowed := make([]string, len(illegal.Allowed))
		for i, s := range illegal.Allowed {
			allowed[i] = string(s)
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "ILLEGAL_TRANSITION",
			Message: illegal.Error(),
			Details: map[string]any{
				"from":    string(illegal.From),
				"to":      string(illegal.To),
				"allowed": allowed,
			},
		})
	}
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: map[string]any{
				"product_id": insufficient.ProductID,
				"requested":  insufficient.Requested.String(),
				"available":  insufficient.Available.String(),
			},
		})
	}
	var conflict *domain.ConcurrencyConflictError
	if errors.As(err, &conflict) {
		// Retentable par l'appelant depuis une relecture fraîche.
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code:    "CONCURRENCY_CONFLICT",
			Message: "conflit de concurrence, réessayer depuis une relecture",
		})
	}
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PRODUCT_NOT_FOUND", Message: "produit introuvable"})
	case errors.Is(err, domain.ErrEntityNotFound), errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ressource introuvable"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "données invalides"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "ressource dupliquée"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

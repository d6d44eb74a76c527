package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/dto"
	"github.com/Bobyyy70/speede-flow-engine/pkg/jwt"
)

// Clés Locals pour ActorID et Desk dans Fiber.
const (
	LocalActorID = "actor_id"
	LocalDesk    = "desk"
)

// AuthMiddleware valide le Bearer Token JWT et pose ActorID et Desk dans
// c.Locals. L'identité vient du fournisseur amont ; ici on ne fait que la
// transporter, aucune autorisation par ressource n'est décidée.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "en-tête Authorization requis"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "format: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vide"})
		}
		actorID, desk, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token invalide ou expiré"})
		}
		c.Locals(LocalActorID, actorID)
		c.Locals(LocalDesk, desk)
		return c.Next()
	}
}

// GetActorID retourne l'ActorID du contexte (après le middleware d'auth).
func GetActorID(c *fiber.Ctx) string {
	v := c.Locals(LocalActorID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetDesk retourne le Desk du contexte (après le middleware d'auth).
func GetDesk(c *fiber.Ctx) string {
	v := c.Locals(LocalDesk)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

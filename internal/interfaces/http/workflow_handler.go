package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/dto"
	"github.com/Bobyyy70/speede-flow-engine/internal/application/workflow"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// WorkflowHandler requêtes HTTP du moteur de transitions (protégé).
type WorkflowHandler struct {
	uc *workflow.TransitionUseCase
}

// NewWorkflowHandler construit le handler.
func NewWorkflowHandler(uc *workflow.TransitionUseCase) *WorkflowHandler {
	return &WorkflowHandler{uc: uc}
}

// parseType famille d'entité depuis le path param :type.
func parseType(c *fiber.Ctx) (status.EntityType, bool) {
	return status.ParseEntityType(c.Params("type"))
}

// CreateEntity godoc
// @Summary      Créer une entité suivie (attendu, commande ou retour)
// @Tags         workflow
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string  true  "shipment | order | return"
// @Param        body  body  dto.CreateEntityRequest  true  "reference, lines (product_id, quantity)"
// @Success      201   {object}  dto.EntityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/workflow/{type}/entities [post]
func (h *WorkflowHandler) CreateEntity(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	entityType, ok := parseType(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "famille d'entité inconnue"})
	}
	var in dto.CreateEntityRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	lines := make([]workflow.LineInput, 0, len(in.Lines))
	for _, line := range in.Lines {
		lines = append(lines, workflow.LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	ent, err := h.uc.CreateEntity(c.Context(), workflow.CreateEntityInput{
		Type:      entityType,
		Reference: in.Reference,
		ActorID:   actorID,
		Lines:     lines,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewEntityResponse(ent))
}

// Transition godoc
// @Summary      Appliquer un changement de statut
// @Tags         workflow
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string  true  "shipment | order | return"
// @Param        id    path  string  true  "ID de l'entité"
// @Param        body  body  dto.TransitionRequest  true  "target_status, reason, metadata"
// @Success      201   {object}  dto.TransitionRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/workflow/{type}/entities/{id}/transitions [post]
func (h *WorkflowHandler) Transition(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	entityType, ok := parseType(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "famille d'entité inconnue"})
	}
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	record, err := h.uc.Transition(c.Context(), workflow.TransitionInput{
		Type:     entityType,
		EntityID: c.Params("id"),
		Target:   status.Status(in.TargetStatus),
		ActorID:  actorID,
		Reason:   in.Reason,
		Metadata: in.Metadata,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransitionRecordResponse(record))
}

// AllowedNext godoc
// @Summary      Statuts légaux depuis un statut courant
// @Tags         workflow
// @Security     Bearer
// @Produce      json
// @Param        type    path  string  true  "shipment | order | return"
// @Param        status  path  string  true  "statut courant"
// @Success      200  {object}  map[string][]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/workflow/{type}/statuses/{status}/next [get]
func (h *WorkflowHandler) AllowedNext(c *fiber.Ctx) error {
	entityType, ok := parseType(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "famille d'entité inconnue"})
	}
	current, err := urlDecodedParam(c, "status")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "statut invalide"})
	}
	next, err := h.uc.AllowedNext(entityType, status.Status(current))
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]string, len(next))
	for i, s := range next {
		out[i] = string(s)
	}
	return c.JSON(fiber.Map{"current_status": current, "allowed_next": out})
}

// History godoc
// @Summary      Historique ordonné des transitions d'une entité
// @Tags         workflow
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "shipment | order | return"
// @Param        id    path  string  true  "ID de l'entité"
// @Success      200  {array}   dto.TransitionRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/workflow/{type}/entities/{id}/history [get]
func (h *WorkflowHandler) History(c *fiber.Ctx) error {
	entityType, ok := parseType(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "famille d'entité inconnue"})
	}
	records, err := h.uc.History(entityType, c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.TransitionRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.NewTransitionRecordResponse(rec))
	}
	return c.JSON(fiber.Map{"total": len(out), "history": out})
}

// urlDecodedParam path param décodé (les statuts portent des accents).
func urlDecodedParam(c *fiber.Ctx, name string) (string, error) {
	return url.PathUnescape(c.Params(name))
}

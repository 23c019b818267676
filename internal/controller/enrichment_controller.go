package controller

import (
	"engram-be/internal/dto"
	"engram-be/internal/pkg/serverutils"
	"engram-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IEnrichmentController interface {
	RegisterRoutes(r fiber.Router)
	FindConnections(ctx *fiber.Ctx) error
	EmbedNote(ctx *fiber.Ctx) error
}

type enrichmentController struct {
	enrichmentService service.IEnrichmentService
}

func NewEnrichmentController(enrichmentService service.IEnrichmentService) IEnrichmentController {
	return &enrichmentController{
		enrichmentService: enrichmentService,
	}
}

func (c *enrichmentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("find-connections", c.FindConnections)
	h.Post("embed-note", c.EmbedNote)
}

func (c *enrichmentController) FindConnections(ctx *fiber.Ctx) error {
	var req dto.FindConnectionsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	res, err := c.enrichmentService.FindConnections(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success find connections", res))
}

func (c *enrichmentController) EmbedNote(ctx *fiber.Ctx) error {
	var req dto.EmbedNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	res, err := c.enrichmentService.EmbedNote(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success embed note", res))
}

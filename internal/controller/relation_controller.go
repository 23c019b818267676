package controller

import (
	"engram-be/internal/dto"
	"engram-be/internal/pkg/serverutils"
	"engram-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRelationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	ListByNote(ctx *fiber.Ctx) error
	Feedback(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type relationController struct {
	relationService service.IRelationService
}

func NewRelationController(relationService service.IRelationService) IRelationController {
	return &relationController{
		relationService: relationService,
	}
}

func (c *relationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/relation/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("note/:noteId", c.ListByNote)
	h.Put(":id/feedback", c.Feedback)
	h.Delete(":id", c.Delete)
}

func (c *relationController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateRelationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.relationService.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create relation", res))
}

func (c *relationController) ListByNote(ctx *fiber.Ctx) error {
	noteId, err := uuid.Parse(ctx.Params("noteId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid note ID"))
	}

	res, err := c.relationService.ListByNote(ctx.Context(), noteId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list relations", res))
}

func (c *relationController) Feedback(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid relation ID"))
	}

	var req dto.RelationFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.relationService.Feedback(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update relation feedback", nil))
}

func (c *relationController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid relation ID"))
	}

	if err := c.relationService.Delete(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete relation", nil))
}

package controller

import (
	"engram-be/internal/dto"
	"engram-be/internal/pkg/serverutils"
	"engram-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IEngrammerController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	GetState(ctx *fiber.Ctx) error
	Continue(ctx *fiber.Ctx) error
	GetNote(ctx *fiber.Ctx) error
}

type engrammerController struct {
	engrammerService service.IEngrammerService
}

func NewEngrammerController(engrammerService service.IEngrammerService) IEngrammerController {
	return &engrammerController{
		engrammerService: engrammerService,
	}
}

func (c *engrammerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/engrammer/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("start", c.Start)
	h.Get("state/:threadId", c.GetState)
	h.Post("continue", c.Continue)
	h.Get("note", c.GetNote)
}

func (c *engrammerController) Start(ctx *fiber.Ctx) error {
	var req dto.EngrammerStartRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	res, err := c.engrammerService.Start(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *engrammerController) GetState(ctx *fiber.Ctx) error {
	res, err := c.engrammerService.GetState(ctx.Context(), ctx.Params("threadId"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session state", res))
}

func (c *engrammerController) Continue(ctx *fiber.Ctx) error {
	var req dto.EngrammerContinueRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	res, err := c.engrammerService.Continue(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success continue session", res))
}

// GetNote resolves a citation. A missing record returns a null payload so
// the UI can render a tombstone instead of an error toast.
func (c *engrammerController) GetNote(ctx *fiber.Ctx) error {
	res, err := c.engrammerService.GetNote(ctx.Context(), ctx.Query("source"), ctx.Query("note_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get source note", res))
}

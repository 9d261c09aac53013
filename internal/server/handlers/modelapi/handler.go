package modelapi

import (
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-core-fx/fiberfx/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/modelsync/modelsync/internal/session"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	session *session.Session

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(session *session.Session, validator *validator.Validate, logger *zap.Logger) handler.Handler {
	return &Handler{
		session: session,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/model")

	r.Use(h.errorsHandler)
	r.Get("/", h.get)
	r.Post("/save", h.save)
	r.Get("/snapshots", h.snapshots)
	r.Get("/elements/:id", h.getElement)
	r.Put("/elements/:id", validation.DecorateWithBodyEx(h.validator, h.putElement))
	r.Delete("/elements/:id", h.deleteElement)
}

func (h *Handler) get(c *fiber.Ctx) error {
	return c.JSON(newModelResponse(h.session.Model(), h.session.IsDirty()))
}

func (h *Handler) save(c *fiber.Ctx) error {
	if err := h.session.Save(c.Context()); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) snapshots(c *fiber.Ctx) error {
	snapshots, err := h.session.Snapshots(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	return c.JSON(lo.Map(snapshots, func(s session.Snapshot, _ int) SnapshotResponse { return newSnapshotResponse(s) }))
}

func (h *Handler) getElement(c *fiber.Ctx) error {
	element, err := h.session.Element(c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(newElementResponse(element))
}

func (h *Handler) putElement(c *fiber.Ctx, req *PUTElementRequest) error {
	id := c.Params("id")
	if err := h.session.PutElement(req.toElement(id), req.Folder); err != nil {
		return fmt.Errorf("failed to put element: %w", err)
	}

	return h.getElement(c)
}

func (h *Handler) deleteElement(c *fiber.Ctx) error {
	if err := h.session.DeleteElement(c.Params("id")); err != nil {
		return fmt.Errorf("failed to delete element: %w", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrFolderNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrReferenced), errors.Is(err, session.ErrBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-core-fx/fiberfx/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultCommitsLimit = 50
	defaultRunsLimit    = 50
)

type Handler struct {
	orchestrator *orchestrator.Service
	journal      *journal.Service
	events       *orchestrator.EventLog

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	orchestrator *orchestrator.Service,
	journal *journal.Service,
	events *orchestrator.EventLog,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		orchestrator: orchestrator,
		journal:      journal,
		events:       events,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/repository")

	r.Use(h.errorsHandler)
	r.Get("/", h.status)
	r.Delete("/", h.delete)
	r.Post("/clone", validation.DecorateWithBodyEx(h.validator, h.clone))
	r.Post("/create", validation.DecorateWithBodyEx(h.validator, h.create))
	r.Post("/refresh", h.refresh)
	r.Post("/publish", h.publish)
	r.Post("/reset", validation.DecorateWithBodyEx(h.validator, h.reset))
	r.Get("/user", h.user)
	r.Put("/user", validation.DecorateWithBodyEx(h.validator, h.putUser))

	r.Get("/branches", h.branches)
	r.Post("/branches/:name/checkout", h.checkout)
	r.Delete("/branches/:name", h.deleteBranch)

	r.Get("/commits", h.commits)
	r.Get("/runs", h.runs)
	r.Get("/runs/:id", h.getRun)
	r.Get("/events", h.eventsList)
}

func (h *Handler) status(c *fiber.Ctx) error {
	state, err := h.orchestrator.Status(c.Context())
	if err != nil {
		return fmt.Errorf("failed to get repository status: %w", err)
	}

	return c.JSON(newStateResponse(state))
}

func (h *Handler) delete(c *fiber.Ctx) error {
	res, err := h.orchestrator.DeleteRepository(c.Context())
	return h.respond(c, res, err)
}

func (h *Handler) clone(c *fiber.Ctx, req *POSTRemoteRequest) error {
	res, err := h.orchestrator.Clone(c.Context(), req.URL, orchestrator.Options{Credentials: req.Credentials.toCredentials()})
	return h.respond(c, res, err)
}

func (h *Handler) create(c *fiber.Ctx, req *POSTRemoteRequest) error {
	res, err := h.orchestrator.CreateFromModel(c.Context(), req.URL, orchestrator.Options{Credentials: req.Credentials.toCredentials()})
	return h.respond(c, res, err)
}

func (h *Handler) refresh(c *fiber.Ctx) error {
	opts, err := h.syncOptions(c)
	if err != nil {
		return err
	}

	res, err := h.orchestrator.Refresh(c.Context(), opts)
	return h.respond(c, res, err)
}

func (h *Handler) publish(c *fiber.Ctx) error {
	opts, err := h.syncOptions(c)
	if err != nil {
		return err
	}

	res, err := h.orchestrator.Publish(c.Context(), opts)
	return h.respond(c, res, err)
}

func (h *Handler) reset(c *fiber.Ctx, req *POSTResetRequest) error {
	res, err := h.orchestrator.Reset(c.Context(), req.Ref)
	return h.respond(c, res, err)
}

func (h *Handler) user(c *fiber.Ctx) error {
	user, err := h.orchestrator.UserDetails(c.Context())
	if err != nil {
		return fmt.Errorf("failed to get user details: %w", err)
	}

	return c.JSON(newUserResponse(user))
}

func (h *Handler) putUser(c *fiber.Ctx, req *PUTUserRequest) error {
	if err := h.orchestrator.SetUserDetails(c.Context(), req.toUserDetails()); err != nil {
		return fmt.Errorf("failed to save user details: %w", err)
	}

	return c.JSON(newUserResponse(req.toUserDetails()))
}

func (h *Handler) branches(c *fiber.Ctx) error {
	branches, err := h.orchestrator.Branches(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list branches: %w", err)
	}

	return c.JSON(lo.Map(branches, func(b vcs.BranchInfo, _ int) BranchResponse { return newBranchResponse(b) }))
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	opts, err := h.syncOptions(c)
	if err != nil {
		return err
	}

	res, err := h.orchestrator.CheckoutBranch(c.Context(), c.Params("name"), opts)
	return h.respond(c, res, err)
}

func (h *Handler) deleteBranch(c *fiber.Ctx) error {
	opts, err := h.syncOptions(c)
	if err != nil {
		return err
	}

	res, err := h.orchestrator.DeleteBranch(c.Context(), c.Params("name"), opts)
	return h.respond(c, res, err)
}

func (h *Handler) commits(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultCommitsLimit)
	if limit <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be positive")
	}

	commits, err := h.orchestrator.History(c.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list commits: %w", err)
	}

	return c.JSON(lo.Map(commits, func(ci vcs.CommitInfo, _ int) CommitResponse { return newCommitResponse(ci) }))
}

func (h *Handler) runs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultRunsLimit)
	if limit <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be positive")
	}

	var (
		runs []journal.Run
		err  error
	)
	if op := c.Query("operation"); op != "" {
		runs, err = h.journal.ListByOperation(c.Context(), orchestrator.Operation(op))
		if len(runs) > limit {
			runs = runs[:limit]
		}
	} else {
		runs, err = h.journal.List(c.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	return c.JSON(lo.Map(runs, func(r journal.Run, _ int) RunResponse { return newRunResponse(r) }))
}

func (h *Handler) getRun(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid run id")
	}

	run, err := h.journal.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	return c.JSON(newRunResponse(*run))
}

func (h *Handler) eventsList(c *fiber.Ctx) error {
	return c.JSON(lo.Map(h.events.Events(), func(e orchestrator.Event, _ int) EventResponse { return newEventResponse(e) }))
}

// syncOptions reads the optional body of a pipeline request.
func (h *Handler) syncOptions(c *fiber.Ctx) (orchestrator.Options, error) {
	if len(c.Body()) == 0 {
		return orchestrator.Options{}, nil
	}

	req := new(POSTSyncRequest)
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return orchestrator.Options{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.validator.Struct(req); err != nil {
		return orchestrator.Options{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return orchestrator.Options{
		Message:     req.Message,
		Credentials: req.Credentials.toCredentials(),
	}, nil
}

func (h *Handler) respond(c *fiber.Ctx, res *orchestrator.Result, err error) error {
	if errors.Is(err, orchestrator.ErrMergeConflictUnresolved) && res != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(FailedResultResponse{
			Message: err.Error(),
			Run:     newResultResponse(res),
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(newResultResponse(res))
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if _, ok := lo.ErrorsAs[validation.Errors](err); ok {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	switch {
	case errors.Is(err, orchestrator.ErrNotFound), errors.Is(err, journal.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, orchestrator.ErrBusy),
		errors.Is(err, orchestrator.ErrWorkingTreeModified),
		errors.Is(err, orchestrator.ErrCannotDeleteBranch),
		errors.Is(err, orchestrator.ErrSaveDeclined),
		errors.Is(err, orchestrator.ErrPushRejected),
		errors.Is(err, orchestrator.ErrCancelled),
		errors.Is(err, vcs.ErrRepositoryAlreadyExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, orchestrator.ErrAuthentication):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, orchestrator.ErrMergeConflictUnresolved):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, orchestrator.ErrNetwork):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

package http

import (
	"context"
	"errors"
	"time"

	"setdb-init/internal/bootstrap/domain/model"
	"setdb-init/internal/bootstrap/usecase"
	apperrors "setdb-init/internal/shared/errors"
	"setdb-init/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// HealthChecker reports the state of the backing services, keyed by name
type HealthChecker interface {
	HealthCheck(ctx context.Context) (map[string]string, error)
}

// BootstrapHTTPHandler serves the status API of serve mode
type BootstrapHTTPHandler struct {
	usecase usecase.BootstrapUsecaseInterface
	plan    *model.Plan
	health  HealthChecker
	timeout time.Duration
	logger  logger.Logger
}

// NewBootstrapHTTPHandler creates a new status handler. timeout bounds every
// request that reaches the database.
func NewBootstrapHTTPHandler(uc usecase.BootstrapUsecaseInterface, plan *model.Plan, health HealthChecker, timeout time.Duration, log logger.Logger) *BootstrapHTTPHandler {
	if log == nil {
		log = logger.Default()
	}
	return &BootstrapHTTPHandler{
		usecase: uc,
		plan:    plan,
		health:  health,
		timeout: timeout,
		logger:  log.WithComponent("http"),
	}
}

// RegisterRoutes mounts the status routes on router
func (h *BootstrapHTTPHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)

	bootstrap := router.Group("/bootstrap")
	bootstrap.Get("/report", h.GetReport)
	bootstrap.Get("/verify", h.Verify)
	bootstrap.Post("/run", h.TriggerRun)
}

func (h *BootstrapHTTPHandler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// Health pings the database and, when configured, Redis
func (h *BootstrapHTTPHandler) Health(c *fiber.Ctx) error {
	if h.health == nil {
		return c.JSON(fiber.Map{"status": "ok"})
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	services, err := h.health.HealthCheck(ctx)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"services": services,
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"services": services,
	})
}

// Ready returns 200 once a bootstrap run has finished successfully
func (h *BootstrapHTTPHandler) Ready(c *fiber.Ctx) error {
	if h.usecase.IsRunning() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not-ready",
			"reason": "bootstrap in progress",
		})
	}

	report := h.usecase.LastReport()
	if report == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not-ready",
			"reason": "bootstrap has not run",
		})
	}
	if !report.Succeeded() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not-ready",
			"reason": report.Error,
			"runId":  report.RunID,
		})
	}

	return c.JSON(fiber.Map{
		"status":   "ready",
		"runId":    report.RunID,
		"database": report.Database,
	})
}

// GetReport returns the report of the last run
func (h *BootstrapHTTPHandler) GetReport(c *fiber.Ctx) error {
	report := h.usecase.LastReport()
	if report == nil {
		return h.errorResponse(c, apperrors.NewNotFoundError("bootstrap report"))
	}
	return c.JSON(report)
}

// Verify inspects the live database against the configured plan
func (h *BootstrapHTTPHandler) Verify(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	v, err := h.usecase.Verify(ctx, h.plan)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"satisfied":    v.Satisfied(),
		"missing":      v.Missing(),
		"populated":    v.Populated(),
		"verification": v,
	})
}

// TriggerRun executes a bootstrap run and returns its report
func (h *BootstrapHTTPHandler) TriggerRun(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	report, err := h.usecase.Run(ctx, h.plan)
	if err != nil {
		if report == nil {
			return h.errorResponse(c, err)
		}
		return c.Status(apperrors.HTTPStatus(err)).JSON(report)
	}

	return c.JSON(fiber.Map{
		"message": report.ConfirmationMessage(),
		"report":  report,
	})
}

func (h *BootstrapHTTPHandler) errorResponse(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.WrapError(err, "internal error")
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"type":    appErr.Type,
			"message": appErr.Message,
			"details": appErr.Details,
		},
	})
}

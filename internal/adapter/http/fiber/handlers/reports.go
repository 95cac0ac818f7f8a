package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/adapter/http/fiber/middleware"
	"github.com/bionicpro/reports-platform/internal/ports"
)

// ReportsHandler serves report retrieval for authenticated callers.
type ReportsHandler struct {
	service ports.ReportService
	log     *zap.Logger
}

func NewReportsHandler(service ports.ReportService, log *zap.Logger) *ReportsHandler {
	return &ReportsHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the report endpoints behind the session
// middleware.
func (h *ReportsHandler) RegisterRoutes(app *fiber.App, sessionRequired fiber.Handler) {
	reports := app.Group("/reports", sessionRequired)
	reports.Get("/", h.Get)
	reports.Get("/:user_id", h.GetByUser)
}

// Get answers the caller's own report for the requested period.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	report, err := h.service.UserReport(c.Context(), *identity,
		c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.log.Error("report generation failed",
			zap.String("user_id", identity.UserID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate report: " + err.Error(),
		})
	}

	return c.JSON(report)
}

// GetByUser rejects cross-user access before delegating to Get.
func (h *ReportsHandler) GetByUser(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	if c.Params("user_id") != identity.UserID {
		h.log.Warn("cross-user report access denied",
			zap.String("caller", identity.UserID),
			zap.String("requested", c.Params("user_id")),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied. You can only access your own reports.",
		})
	}

	return h.Get(c)
}

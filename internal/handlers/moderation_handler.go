package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/coriplus/coriplus/internal/dto"
	"github.com/coriplus/coriplus/internal/identity"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/repository"
	"github.com/coriplus/coriplus/internal/services"
	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 100

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// CreateReport files a report. Anonymous callers are allowed.
func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	media, err := models.NewMediaRef(req.MediaType, req.MediaID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "media_type must be user or message",
		})
	}

	report, err := h.moderationService.CreateReport(c.UserContext(), identity.OptionalUserID(c), media, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidReason):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrMediaNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create report",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) Reasons(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"report_reasons": models.ReportReasons()})
}

func (h *ModerationHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.moderationService.Dashboard(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load dashboard",
		})
	}
	return c.JSON(d)
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	var filter repository.ReportFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseReportStatus(raw)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "status must be pending, accepted or declined",
			})
		}
		filter.Status = &status
	}
	filter.Limit, filter.Offset = pagination(c, 0)

	reports, total, err := h.moderationService.ListReports(c.UserContext(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch reports",
		})
	}

	return c.JSON(dto.ReportListResponse{
		Reports: reports,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		Reasons: models.ReportReasons(),
	})
}

func (h *ModerationHandler) GetReport(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	report, err := h.moderationService.GetReport(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch report",
		})
	}

	return c.JSON(dto.ReportDetailResponse{Report: report, Reasons: models.ReportReasons()})
}

// ReviewReport applies a decision. HTML forms submit take_down or discard
// and are redirected back to the report list; JSON clients get the
// updated report.
func (h *ModerationHandler) ReviewReport(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	var req dto.ReviewReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	form := isFormRequest(c)
	decision := services.Decision(strings.ToLower(req.Decision))
	if form && decision == "" {
		takeDown, discard := formHas(c, "take_down"), formHas(c, "discard")
		switch {
		case takeDown && !discard:
			decision = services.DecisionAccept
		case discard && !takeDown:
			decision = services.DecisionDecline
		}
	}

	report, err := h.moderationService.ReviewReport(c.UserContext(), id, decision, identity.AdminID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDecision):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrReportNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to review report",
		})
	}

	if form {
		return c.Redirect("/api/admin/reports", fiber.StatusSeeOther)
	}
	return c.JSON(report)
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	return uint(id), err
}

// pagination reads limit and offset. A missing or non-positive limit falls
// back to defaultLimit; larger values are capped at maxPageSize.
func pagination(c *fiber.Ctx, defaultLimit int) (int, int) {
	limit := c.QueryInt("limit", defaultLimit)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func isFormRequest(c *fiber.Ctx) bool {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}

// formHas reports whether a form field was submitted, even with an empty
// value, as submit buttons without a value are.
func formHas(c *fiber.Ctx, key string) bool {
	if c.Request().PostArgs().Has(key) {
		return true
	}
	if mf, err := c.MultipartForm(); err == nil {
		_, ok := mf.Value[key]
		return ok
	}
	return false
}

package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"atrium/internal/delivery/http/response"
	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuditHandler holds dependencies for the audit log handlers. All routes
// are admin-only and scoped to the caller's tenant.
type AuditHandler struct {
	uc     usecase.AuditUsecase
	logger *slog.Logger
}

// NewAuditHandler is the constructor for AuditHandler, injected by Fx.
func NewAuditHandler(uc usecase.AuditUsecase, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{uc: uc, logger: logger}
}

// auditFilter builds the repository filter from query parameters, pinned
// to the calling admin's tenant.
func auditFilter(c echo.Context, account *entity.Account) (repository.AuditFilter, error) {
	filter := repository.AuditFilter{
		TenantID:   account.TenantID,
		Action:     c.QueryParam("action"),
		EntityType: c.QueryParam("entity_type"),
	}

	if raw := c.QueryParam("actor_id"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid actor_id")
		}
		filter.ActorID = &actorID
	}
	if raw := c.QueryParam("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid from timestamp")
		}
		filter.From = from
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid to timestamp")
		}
		filter.To = to
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("invalid page")
		}
		filter.Page = page
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}

	return filter, nil
}

// List returns a filtered page of audit entries, newest first.
func (h *AuditHandler) List(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	filter, err := auditFilter(c, account)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", err.Error())
	}

	output, err := h.uc.List(c.Request().Context(), filter)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"entries": output.Entries,
		"total":   output.Total,
		"page":    output.Page,
		"limit":   output.Limit,
	}, "")
}

// Export streams all matching entries as JSON or CSV.
func (h *AuditHandler) Export(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	filter, err := auditFilter(c, account)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", err.Error())
	}

	format := c.QueryParam("format")
	if format == "" {
		format = usecase.AuditExportJSON
	}
	if format != usecase.AuditExportJSON && format != usecase.AuditExportCSV {
		return response.BadRequest(c, "INVALID_INPUT", "Unsupported export format")
	}

	data, contentType, err := h.uc.Export(c.Request().Context(), filter, format)
	if err != nil {
		return errors.WithStack(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="audit-export.`+format+`"`)

	return c.Blob(http.StatusOK, contentType, data)
}

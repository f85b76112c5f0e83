package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aurora-ai/aurora-api/internal/api/respond"
	"github.com/aurora-ai/aurora-api/internal/core/ports"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditHandler exposes the authentication audit trail to administrators.
type AuditHandler struct {
	store ports.AuditStore
}

func NewAuditHandler(store ports.AuditStore) *AuditHandler {
	return &AuditHandler{store: store}
}

// Recent lists the most recent audit events, newest first.
//
// @Summary      Recent audit events
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum events to return (1-500)"
// @Success      200    {object}  map[string]any
// @Failure      403    {object}  respond.Failure
// @Router       /admin/audit [get]
func (h *AuditHandler) Recent(c echo.Context) error {
	limit := int64(defaultAuditLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxAuditLimit {
			return respond.Error(c, http.StatusBadRequest, "invalid parameter",
				"limit must be an integer between 1 and 500", "")
		}
		limit = n
	}

	events, err := h.store.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return respond.Data(c, http.StatusOK, map[string]any{"events": events})
}

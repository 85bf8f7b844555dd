package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/utils"
)

type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List handles GET /v1/admin/audit?entity=&adminId=&page=&limit=.
func (h *AuditHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	entries, total, err := h.audit.List(c.Query("entity"), queryInt(c, "adminId", 0), page, limit)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Audit log retrieved", entries, page, limit, total)
}

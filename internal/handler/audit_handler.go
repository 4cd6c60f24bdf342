package handler

import (
	"net/http"

	"github.com/Baaaki/role-admin/internal/middleware"
	"github.com/Baaaki/role-admin/internal/service"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List returns the most recent audit entries, newest first.
// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	entries, err := h.auditService.ListAuditLog(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

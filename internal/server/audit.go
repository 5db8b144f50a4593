package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/wavelinklabs/wavelink/internal/audit/domain"
)

// ListAuditLog
// GET /api/audit?action=payment.applied&limit=100
func (s *Server) ListAuditLog(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit <= 0 {
			invalidRequest(c)
			return
		}
	}

	logs, err := s.audit.List(c.Request.Context(), c.Query("action"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, logs)
}

// ExportAuditLog
// GET /api/audit/export?from=2026-01-01&to=2026-02-01&format=csv&actions=payment.applied
func (s *Server) ExportAuditLog(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		invalidRequest(c)
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil || !to.After(from) {
		invalidRequest(c)
		return
	}

	format := auditdomain.ExportFormatCSV
	if raw := c.Query("format"); raw != "" {
		f, ok := auditdomain.ParseExportFormat(raw)
		if !ok {
			invalidRequest(c)
			return
		}
		format = f
	}

	var actions []string
	if raw := c.Query("actions"); raw != "" {
		actions = strings.Split(raw, ",")
	}

	result, err := s.audit.Export(c.Request.Context(), auditdomain.ExportRequest{
		StartDate: from,
		EndDate:   to,
		Format:    format,
		Actions:   actions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	contentType := "text/csv"
	if result.Format == auditdomain.ExportFormatJSON {
		contentType = "application/json"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=audit-export.%s", result.Format))
	c.Header("X-Export-Checksum", result.Checksum)
	c.Header("X-Export-Count", fmt.Sprintf("%d", result.Count))
	c.Data(http.StatusOK, contentType, result.Data)
}

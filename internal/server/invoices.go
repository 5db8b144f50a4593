package server

import (
	"fmt"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/wavelinklabs/wavelink/internal/invoice/domain"
	invoiceservice "github.com/wavelinklabs/wavelink/internal/invoice/service"
)

type createInvoiceRequest struct {
	Kind        string          `json:"kind" binding:"required"`
	CustomerID  string          `json:"customer_id" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

// CreateInvoice
// POST /api/invoices
func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	kind, ok := invoicedomain.ParseKind(req.Kind)
	if !ok {
		AbortWithError(c, invoicedomain.ErrInvalidKind)
		return
	}
	customerID, err := snowflake.ParseString(req.CustomerID)
	if err != nil {
		invalidRequest(c)
		return
	}

	inv, err := s.invoices.Create(c.Request.Context(), invoiceservice.CreateInput{
		Kind:        kind,
		CustomerID:  customerID,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.record(c, "invoice.created", "invoice", inv.ID.String(), gin.H{
		"number": inv.Number,
		"kind":   inv.Kind,
		"amount": inv.Amount,
	})
	respondData(c, inv)
}

// ListInvoices
// GET /api/invoices?kind=PRODUCT&limit=50
func (s *Server) ListInvoices(c *gin.Context) {
	var kind *invoicedomain.InvoiceKind
	if raw := c.Query("kind"); raw != "" {
		k, ok := invoicedomain.ParseKind(raw)
		if !ok {
			AbortWithError(c, invoicedomain.ErrInvalidKind)
			return
		}
		kind = &k
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit <= 0 {
			invalidRequest(c)
			return
		}
	}

	invoices, err := s.invoices.List(c.Request.Context(), kind, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, invoices)
}

// GetInvoice
// GET /api/invoices/:id
func (s *Server) GetInvoice(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequest(c)
		return
	}
	inv, err := s.invoices.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, inv)
}

// GetInvoicePDF
// GET /api/invoices/:id/pdf
func (s *Server) GetInvoicePDF(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequest(c)
		return
	}
	inv, err := s.invoices.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	customer, err := s.customers.FindByID(c.Request.Context(), nil, inv.CustomerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pdf, err := s.renderer.Render(inv, customer)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", inv.Number))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

package server

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/customer"
)

type registerCustomerRequest struct {
	Name string `json:"name" binding:"required"`
}

// RegisterCustomer
// POST /api/customers
func (s *Server) RegisterCustomer(c *gin.Context) {
	var req registerCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	profile, err := s.customerSvc.Register(c.Request.Context(), req.Name)
	if err != nil {
		if err == customer.ErrInvalidName {
			invalidRequest(c)
			return
		}
		AbortWithError(c, err)
		return
	}

	s.record(c, "customer.registered", "customer", profile.ID.String(), gin.H{"name": profile.Name})
	respondData(c, profile)
}

// ListCustomers
// GET /api/customers?status=SUSPENDED&limit=100
func (s *Server) ListCustomers(c *gin.Context) {
	var status *billingdomain.CustomerStatus
	if raw := c.Query("status"); raw != "" {
		st, ok := billingdomain.ParseCustomerStatus(raw)
		if !ok {
			invalidRequest(c)
			return
		}
		status = &st
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit <= 0 {
			invalidRequest(c)
			return
		}
	}

	profiles, err := s.customerSvc.List(c.Request.Context(), status, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, profiles)
}

type setCustomerStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetCustomerStatus
// POST /api/customers/:id/status
func (s *Server) SetCustomerStatus(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequest(c)
		return
	}

	var req setCustomerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	status, ok := billingdomain.ParseCustomerStatus(req.Status)
	if !ok {
		invalidRequest(c)
		return
	}

	profile, err := s.customerSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.record(c, "customer.status_changed", "customer", id.String(), gin.H{"status": status})
	respondData(c, profile)
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/paylink"
)

type submitPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required"`
	TrxID  string          `json:"trxId" binding:"required"`
}

// ResolvePaymentLink
// GET /pay/:token
func (s *Server) ResolvePaymentLink(c *gin.Context) {
	projection, err := s.payLink.ResolveByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"billId":         projection.BillID.String(),
		"customerName":   projection.CustomerName,
		"packageName":    projection.PackageName,
		"amount":         projection.Amount,
		"discountAmount": projection.DiscountAmount,
		"totalDue":       projection.TotalDue,
		"paidSoFar":      projection.PaidSoFar,
		"dueNow":         projection.DueNow,
		"dueDate":        projection.DueDate,
	})
}

// SubmitPaymentByLink
// POST /pay/:token
func (s *Server) SubmitPaymentByLink(c *gin.Context) {
	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	method, ok := billingdomain.ParseMethod(req.Method)
	if !ok {
		AbortWithError(c, billingdomain.ErrInvalidMethod)
		return
	}

	receipt, err := s.payLink.SubmitByToken(c.Request.Context(), c.Param("token"), req.Amount, method, req.TrxID)
	if err != nil {
		// A bill settled between resolve and apply reads the same as an
		// expired link to an anonymous payer.
		if errors.Is(err, billingdomain.ErrAlreadySettled) || errors.Is(err, billingdomain.ErrBillNotFound) {
			AbortWithError(c, paylink.ErrLinkNotFound)
			return
		}
		AbortWithError(c, err)
		return
	}

	s.record(c, "payment.applied", "bill", receipt.Bill.ID.String(), gin.H{
		"channel": "paylink",
		"method":  method,
		"amount":  req.Amount,
		"trx_id":  receipt.Payment.TrxID,
	})
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Payment received",
		"status":  receipt.Bill.Status,
	})
}

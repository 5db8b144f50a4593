package server

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
)

type issuePaymentLinkRequest struct {
	TTLHours *int `json:"ttl_hours"`
}

// IssuePaymentLink
// POST /api/bills/:id/payment-link
func (s *Server) IssuePaymentLink(c *gin.Context) {
	billID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequest(c)
		return
	}

	var req issuePaymentLinkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidRequest(c)
			return
		}
	}

	var ttl *time.Duration
	if req.TTLHours != nil {
		if *req.TTLHours <= 0 {
			invalidRequest(c)
			return
		}
		d := time.Duration(*req.TTLHours) * time.Hour
		ttl = &d
	} else if s.cfg.PaymentTokenTTL > 0 {
		d := s.cfg.PaymentTokenTTL
		ttl = &d
	}

	token, expiresAt, err := s.payLink.IssueToken(c.Request.Context(), billID, ttl)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.record(c, "paylink.issued", "bill", billID.String(), gin.H{"expires_at": expiresAt})
	respondData(c, gin.H{"token": token, "expires_at": expiresAt})
}

type applyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required"`
	TrxID  string          `json:"trx_id" binding:"required"`
}

// ApplyBillPayment records a payment taken through a staff channel. Wallet
// methods are still verified with the gateway; cash and adjustments are
// trusted as already reconciled at the counter.
// POST /api/bills/:id/payments
func (s *Server) ApplyBillPayment(c *gin.Context) {
	billID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequest(c)
		return
	}

	var req applyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	method, ok := billingdomain.ParseMethod(req.Method)
	if !ok {
		AbortWithError(c, billingdomain.ErrInvalidMethod)
		return
	}

	receipt, err := s.payLink.SubmitStaffPayment(c.Request.Context(), billID, req.Amount, method, req.TrxID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.record(c, "payment.applied", "bill", billID.String(), gin.H{
		"channel": "staff",
		"method":  method,
		"amount":  req.Amount,
		"trx_id":  req.TrxID,
	})
	respondData(c, receipt)
}

// GetBill
// GET /api/bills/:id
func (s *Server) GetBill(c *gin.Context) {
	billID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequest(c)
		return
	}

	bill, payments, err := s.ledger.GetBill(c.Request.Context(), billID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	respondData(c, gin.H{
		"bill":      bill,
		"payments":  payments,
		"net_total": bill.NetTotal(),
		"paid":      paid,
	})
}

// GetAdvanceBalance
// GET /api/customers/:id/balance
func (s *Server) GetAdvanceBalance(c *gin.Context) {
	customerID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequest(c)
		return
	}

	balance, err := s.advance.Balance(c.Request.Context(), nil, customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"customer_id": customerID.String(), "advance_balance": balance})
}

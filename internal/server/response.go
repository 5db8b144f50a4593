package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	invoicedomain "github.com/wavelinklabs/wavelink/internal/invoice/domain"
	"github.com/wavelinklabs/wavelink/internal/paylink"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func invalidRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

// AbortWithError maps domain sentinels onto the HTTP taxonomy: validation and
// verification failures are 400, missing-or-expired resources are 404,
// conflicts are 409, anything else is a 500 with the detail kept server-side.
func AbortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billingdomain.ErrInvalidAmount),
		errors.Is(err, billingdomain.ErrInvalidMethod),
		errors.Is(err, billingdomain.ErrTrxTooShort),
		errors.Is(err, invoicedomain.ErrInvalidKind):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, paylink.ErrVerificationFailed):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, paylink.ErrLinkNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invalid or expired payment link"})
	case errors.Is(err, billingdomain.ErrBillNotFound),
		errors.Is(err, billingdomain.ErrCustomerNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, billingdomain.ErrAlreadySettled),
		errors.Is(err, billingdomain.ErrDuplicateTrx):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

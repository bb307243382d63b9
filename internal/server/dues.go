package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
)

func (s *Server) ListDuesInvoices(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoices, err := s.duesSvc.ListInvoices(c.Request.Context(), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// CreateDuesInvoice invoices one member and sends the dues email. An
// already-invoiced member only gets the email again.
func (s *Server) CreateDuesInvoice(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	memberID := c.Param("id")

	invoice, err := s.duesSvc.CreateDuesInvoice(c.Request.Context(), year, memberID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.duesSvc.SendDuesEmail(c.Request.Context(), year, memberID); err != nil {
		AbortWithError(c, err)
		return
	}

	if invoice == nil {
		// Investing member: email only, no invoice document.
		c.JSON(http.StatusOK, gin.H{"invoice": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

type batchRequest struct {
	Count int `json:"count"`
}

func (s *Server) SendDuesBatch(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := batchRequest{Count: 5}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	sent, err := s.duesSvc.SendDuesBatch(c.Request.Context(), year, req.Count)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func (s *Server) ReduceDues(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req duesdomain.ReductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.MemberID = c.Param("id")
	req.Year = year

	result, err := s.duesSvc.Reduce(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
)

// DownloadInvoice serves the PDF behind the tokenized link from the
// dues email. Any failure, including malformed parameters, answers 404
// so the link leaks nothing about which part was wrong.
func (s *Server) DownloadInvoice(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		AbortWithError(c, duesdomain.ErrInvoiceNotFound)
		return
	}
	invoiceNo, err := strconv.ParseInt(c.Param("no"), 10, 64)
	if err != nil {
		AbortWithError(c, duesdomain.ErrInvoiceNotFound)
		return
	}

	invoice, member, err := s.duesSvc.LookupInvoiceForDownload(
		c.Request.Context(), year, c.Param("email"), c.Param("code"), invoiceNo)
	if err != nil {
		AbortWithError(c, duesdomain.ErrInvoiceNotFound)
		return
	}

	reader, err := s.archiveSvc.Render(c.Request.Context(), invoice, member)
	if err != nil {
		AbortWithError(c, duesdomain.ErrInvoiceNotFound)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.InvoiceNoString+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ArchiveStats(c *gin.Context) {
	stats, err := s.archiveSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

type archiveRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) ArchiveYear(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := archiveRequest{Limit: 5}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	archived, err := s.archiveSvc.GenerateMissingPDFs(c.Request.Context(), year, req.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": archived})
}

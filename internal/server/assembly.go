package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	assemblydomain "github.com/c3s/memberadmin/internal/assembly/domain"
)

func (s *Server) ListAssemblies(c *gin.Context) {
	assemblies, err := s.assemblySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assemblies": assemblies})
}

func (s *Server) CreateAssembly(c *gin.Context) {
	var req assemblydomain.CreateAssemblyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	assembly, err := s.assemblySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assembly)
}

func (s *Server) GetAssembly(c *gin.Context) {
	assembly, err := s.assemblySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, assembly)
}

func (s *Server) UpdateAssembly(c *gin.Context) {
	var req assemblydomain.UpdateAssemblyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	assembly, err := s.assemblySvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, assembly)
}

func (s *Server) InviteMember(c *gin.Context) {
	invitation, err := s.assemblySvc.Invite(c.Request.Context(), c.Param("id"), c.Param("memberID"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

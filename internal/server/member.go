package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
)

func (s *Server) CreateApplication(c *gin.Context) {
	var req memberdomain.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	member, err := s.memberSvc.CreateApplication(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (s *Server) GetMember(c *gin.Context) {
	member, err := s.memberSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (s *Server) AcceptMember(c *gin.Context) {
	var req memberdomain.AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.MemberID = c.Param("id")

	member, err := s.memberSvc.Accept(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (s *Server) DeleteApplicant(c *gin.Context) {
	if err := s.memberSvc.DeleteApplicant(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RecordPaymentNotice(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req memberdomain.PaymentNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.MemberID = c.Param("id")
	req.Year = year

	record, err := s.memberSvc.RecordPaymentNotice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func parseYear(c *gin.Context) (int, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 9999 {
		return 0, ErrInvalidRequest
	}
	return year, nil
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
)

type createTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Server) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenantSvc.Create(c.Request.Context(), tenantdomain.CreateTenantRequest{
		Name: strings.TrimSpace(req.Name),
		Slug: strings.TrimSpace(req.Slug),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSettings(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	resp, err := s.tenantSvc.Settings(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSettings(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	var req tenantdomain.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenantSvc.UpdateSettings(c.Request.Context(), tenantID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	commissiondomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
)

func (s *Server) ListCommissions(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	var query struct {
		UserID   string `form:"user_id"`
		OrderID  string `form:"order_id"`
		RoleType string `form:"role_type"`
		IsPaid   *bool  `form:"is_paid"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := commissiondomain.ListCommissionsFilter{IsPaid: query.IsPaid}
	userID, err := parseOptionalID(query.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}
	filter.UserID = userID
	orderID, err := parseOptionalID(query.OrderID)
	if err != nil {
		AbortWithError(c, newValidationError("order_id", "invalid_order_id", "invalid order_id"))
		return
	}
	filter.OrderID = orderID
	if raw := strings.TrimSpace(query.RoleType); raw != "" {
		roleType := commissiondomain.RoleType(raw)
		filter.RoleType = &roleType
	}

	resp, err := s.commissionSvc.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"commissions": resp}})
}

type updateCommissionExtraRequest struct {
	ExtraAmount int64  `json:"extra_amount"`
	Notes       string `json:"notes"`
}

func (s *Server) UpdateCommissionExtra(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	commissionID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req updateCommissionExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commissionSvc.UpdateExtraAmount(c.Request.Context(), tenantID, commissionID, req.ExtraAmount, req.Notes)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PayCommission(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	commissionID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.commissionSvc.MarkPaid(c.Request.Context(), tenantID, commissionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createCommissionRuleRequest struct {
	UserID      string  `json:"user_id"`
	RoleType    string  `json:"role_type"`
	Type        string  `json:"type"`
	FixedAmount int64   `json:"fixed_amount"`
	PercentRate float64 `json:"percent_rate"`
	Currency    string  `json:"currency"`
}

func (s *Server) CreateCommissionRule(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	var req createCommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseOptionalID(req.UserID)
	if err != nil || userID == nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}

	resp, err := s.commissionSvc.CreateRule(c.Request.Context(), tenantID, commissiondomain.CreateRuleRequest{
		UserID:      *userID,
		RoleType:    commissiondomain.RoleType(strings.TrimSpace(req.RoleType)),
		Type:        commissiondomain.RuleType(strings.TrimSpace(req.Type)),
		FixedAmount: req.FixedAmount,
		PercentRate: req.PercentRate,
		Currency:    req.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCommissionRules(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	resp, err := s.commissionSvc.ListRules(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rules": resp}})
}

func (s *Server) DeactivateCommissionRule(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	ruleID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	if err := s.commissionSvc.DeactivateRule(c.Request.Context(), tenantID, ruleID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deactivated": true}})
}

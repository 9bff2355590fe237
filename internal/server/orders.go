package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

type createOrderRequest struct {
	ClientID    string `json:"client_id"`
	Priority    string `json:"priority"`
	Type        string `json:"type"`
	Price       *int64 `json:"price"`
	Currency    string `json:"currency"`
	IsQuote     bool   `json:"is_quote"`
	SalesUserID string `json:"sales_user_id"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, _ := s.actor(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := parseOptionalID(req.ClientID)
	if err != nil || clientID == nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	salesID, err := parseOptionalID(req.SalesUserID)
	if err != nil {
		AbortWithError(c, newValidationError("sales_user_id", "invalid_sales_user_id", "invalid sales_user_id"))
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), tenantID, actorID, orderdomain.CreateOrderRequest{
		ClientID:    *clientID,
		Priority:    orderdomain.Priority(strings.TrimSpace(req.Priority)),
		Type:        orderdomain.OrderType(strings.TrimSpace(req.Type)),
		Price:       req.Price,
		Currency:    req.Currency,
		IsQuote:     req.IsQuote,
		SalesUserID: salesID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.orderSvc.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		DesignerID string `form:"designer_id"`
		ClientID   string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := orderdomain.ListOrdersRequest{Pagination: query.Pagination}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, ok := workflow.ParseOrderStatus(raw)
		if !ok {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
		req.Status = &status
	}
	designerID, err := parseOptionalID(query.DesignerID)
	if err != nil {
		AbortWithError(c, newValidationError("designer_id", "invalid_designer_id", "invalid designer_id"))
		return
	}
	req.DesignerID = designerID
	clientID, err := parseOptionalID(query.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	req.ClientID = clientID

	resp, err := s.orderSvc.List(c.Request.Context(), tenantID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	if err := s.orderSvc.SoftDelete(c.Request.Context(), tenantID, orderID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

type transitionOrderRequest struct {
	Target      string `json:"target"`
	Note        string `json:"note"`
	DesignerTip int64  `json:"designer_tip"`
}

func (s *Server) TransitionOrder(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, role := s.actor(c)
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req transitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	target, ok := workflow.ParseOrderStatus(strings.TrimSpace(req.Target))
	if !ok {
		AbortWithError(c, newValidationError("target", "invalid_target", "invalid target status"))
		return
	}

	resp, err := s.orderSvc.Transition(c.Request.Context(), tenantID, orderID, orderdomain.TransitionRequest{
		Target:      target,
		Role:        workflow.Role(role),
		ActorID:     actorID,
		Note:        req.Note,
		DesignerTip: req.DesignerTip,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AllowedOrderTransitions(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	_, role := s.actor(c)
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	targets, err := s.orderSvc.AllowedTransitions(c.Request.Context(), tenantID, orderID, workflow.Role(role))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"targets": targets}})
}

type assignOrderRequest struct {
	DesignerID string `json:"designer_id"`
}

func (s *Server) AssignOrder(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, _ := s.actor(c)
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req assignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	designerID, err := parseOptionalID(req.DesignerID)
	if err != nil || designerID == nil {
		AbortWithError(c, newValidationError("designer_id", "invalid_designer_id", "invalid designer_id"))
		return
	}

	resp, err := s.orderSvc.Assign(c.Request.Context(), tenantID, orderID, orderdomain.AssignRequest{
		DesignerID: *designerID,
		AssignedBy: actorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) EndOrderAssignment(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, _ := s.actor(c)
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	if err := s.orderSvc.EndAssignment(c.Request.Context(), tenantID, orderID, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"ended": true}})
}

func (s *Server) ListOrderAssignments(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.orderSvc.Assignments(c.Request.Context(), tenantID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"assignments": resp}})
}

func (s *Server) ListOrderHistory(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.orderSvc.History(c.Request.Context(), tenantID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"history": resp}})
}

type requestRevisionRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) RequestRevision(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, _ := s.actor(c)
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req requestRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.RequestRevision(c.Request.Context(), tenantID, orderID, actorID, req.Notes)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveRevision(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, _ := s.actor(c)
	revisionID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	if err := s.orderSvc.ResolveRevision(c.Request.Context(), tenantID, revisionID, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"resolved": true}})
}

func (s *Server) CreateRevisionOrder(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, _ := s.actor(c)
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.orderSvc.CreateRevisionOrder(c.Request.Context(), tenantID, orderID, actorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addCommentRequest struct {
	Body            string `json:"body"`
	Visibility      string `json:"visibility"`
	ParentCommentID string `json:"parent_comment_id"`
}

func (s *Server) AddOrderComment(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	actorID, _ := s.actor(c)
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	parentID, err := parseOptionalID(req.ParentCommentID)
	if err != nil {
		AbortWithError(c, newValidationError("parent_comment_id", "invalid_parent_comment_id", "invalid parent_comment_id"))
		return
	}

	resp, err := s.orderSvc.AddComment(c.Request.Context(), tenantID, orderID, orderdomain.CommentRequest{
		AuthorID:        actorID,
		Body:            req.Body,
		Visibility:      orderdomain.CommentVisibility(strings.TrimSpace(req.Visibility)),
		ParentCommentID: parentID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrderComments(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	orderID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	includeInternal := c.Query("visibility") != "client"
	resp, err := s.orderSvc.ListComments(c.Request.Context(), tenantID, orderID, includeInternal)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"comments": resp}})
}

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

type createInvoiceItemRequest struct {
	OrderID     string `json:"order_id"`
	Description string `json:"description"`
	Amount      *int64 `json:"amount"`
}

type createInvoiceRequest struct {
	ClientID string                     `json:"client_id"`
	Currency string                     `json:"currency"`
	DueAt    *time.Time                 `json:"due_at"`
	Items    []createInvoiceItemRequest `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	clientID, err := parseOptionalID(req.ClientID)
	if err != nil || clientID == nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}

	items := make([]invoicedomain.CreateInvoiceItemRequest, 0, len(req.Items))
	for _, line := range req.Items {
		orderID, err := parseOptionalID(line.OrderID)
		if err != nil {
			AbortWithError(c, newValidationError("items.order_id", "invalid_order_id", "invalid order_id"))
			return
		}
		items = append(items, invoicedomain.CreateInvoiceItemRequest{
			OrderID:     orderID,
			Description: line.Description,
			Amount:      line.Amount,
		})
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), tenantID, invoicedomain.CreateInvoiceRequest{
		ClientID: *clientID,
		Currency: req.Currency,
		DueAt:    req.DueAt,
		Items:    items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoice(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoicesRequest{Pagination: query.Pagination}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, ok := workflow.ParseInvoiceStatus(raw)
		if !ok {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
		req.Status = &status
	}
	clientID, err := parseOptionalID(query.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	req.ClientID = clientID

	resp, err := s.invoiceSvc.List(c.Request.Context(), tenantID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type transitionInvoiceRequest struct {
	Target string `json:"target"`
	Note   string `json:"note"`
}

func (s *Server) TransitionInvoice(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req transitionInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	target, ok := workflow.ParseInvoiceStatus(strings.TrimSpace(req.Target))
	if !ok {
		AbortWithError(c, newValidationError("target", "invalid_target", "invalid target status"))
		return
	}

	resp, err := s.invoiceSvc.Transition(c.Request.Context(), tenantID, invoiceID, invoicedomain.TransitionRequest{
		Target: target,
		Note:   req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordPaymentRequest struct {
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

func (s *Server) RecordInvoicePayment(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.RecordPayment(c.Request.Context(), tenantID, invoiceID, invoicedomain.RecordPaymentRequest{
		Amount:    req.Amount,
		Method:    strings.TrimSpace(req.Method),
		Reference: strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.invoiceSvc.Payments(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"payments": resp}})
}

func (s *Server) ListInvoiceItems(c *gin.Context) {
	tenantID, ok := s.tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := pathID(c)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.invoiceSvc.Items(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"items": resp}})
}

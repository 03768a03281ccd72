package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// OrderHandler serves the merchant-facing API: checkout session creation,
// order/status queries, and refund requests.
type OrderHandler struct {
	checkout *usecase.SessionBuilder
	refunds  *usecase.RefundRecorder
	ledger   usecase.OrderLedger
	cache    usecase.StatusCache // optional
}

func NewOrderHandler(checkout *usecase.SessionBuilder, refunds *usecase.RefundRecorder, ledger usecase.OrderLedger, cache usecase.StatusCache) *OrderHandler {
	return &OrderHandler{checkout: checkout, refunds: refunds, ledger: ledger, cache: cache}
}

// Checkout builds the hosted-checkout redirect for an order, moving it to
// awaiting_payment on first call.
func (h *OrderHandler) Checkout(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	session, err := h.checkout.Execute(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		case errors.Is(err, usecase.ErrGatewayUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway_unavailable"})
		case errors.Is(err, usecase.ErrSessionUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "order_not_eligible"})
		case errors.Is(err, usecase.ErrWrongGateway):
			c.JSON(http.StatusBadRequest, gin.H{"error": "wrong_gateway"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	o, err := h.ledger.Get(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if h.cache != nil {
		_ = h.cache.SetStatus(ctx, o.ID, string(o.Status))
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           o.ID,
		"status":       o.Status,
		"amount_cents": o.Amount.Cents,
		"currency":     o.Amount.Currency,
		"tx_ref":       o.TxRef,
	})
}

// GetStatus is the high-frequency polling endpoint: cache first, ledger on
// miss.
func (h *OrderHandler) GetStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.cache != nil {
		if status, hit, err := h.cache.GetStatus(ctx, id); err == nil && hit {
			c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
			return
		}
	}

	o, err := h.ledger.Get(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if h.cache != nil {
		_ = h.cache.SetStatus(ctx, o.ID, string(o.Status))
	}
	c.JSON(http.StatusOK, gin.H{"id": o.ID, "status": o.Status})
}

type refundReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Refund(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	var req refundReq
	_ = c.ShouldBindJSON(&req) // reason is optional

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.refunds.Execute(ctx, id, req.Reason); err != nil {
		switch {
		case errors.Is(err, usecase.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		case errors.Is(err, usecase.ErrNotRefundable):
			c.JSON(http.StatusConflict, gin.H{"error": "not_refundable"})
		case errors.Is(err, usecase.ErrWrongGateway):
			c.JSON(http.StatusBadRequest, gin.H{"error": "wrong_gateway"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"order_id": id, "status": "refund_requested"})
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_order_id"})
		return 0, false
	}
	return id, true
}

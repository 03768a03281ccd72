package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexflow/easepay-confirm/internal/adapter/observ"
	"github.com/nexflow/easepay-confirm/internal/logging"
	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// WebhookHandler ingests provider payment notifications. Authentication is
// done upstream by the webhook auth middleware; this handler normalizes,
// deduplicates, and reconciles.
type WebhookHandler struct {
	rec    *usecase.Reconciler
	dedupe usecase.DeliveryDedupe // optional
}

func NewWebhookHandler(rec *usecase.Reconciler, dedupe usecase.DeliveryDedupe) *WebhookHandler {
	return &WebhookHandler{rec: rec, dedupe: dedupe}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Byte-identical redeliveries are answered from the delivery store
	// without another reconciliation pass.
	digest := deliveryDigest(body)
	if h.dedupe != nil {
		if outcome, seen, err := h.dedupe.Recall(ctx, digest); err == nil && seen {
			logging.From(c).Info("duplicate delivery short-circuited", "outcome", outcome)
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
	}

	// Normalization happens before any ledger lookup: malformed input must
	// not be able to probe for order existence.
	var msg usecase.PaymentEventMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}
	ev, err := usecase.NormalizeEvent(msg, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnknownStatus):
			logging.From(c).Warn("unknown payment status rejected", "status", msg.Status)
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		}
		return
	}

	outcome, err := h.rec.Execute(ctx, ev)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, usecase.ErrWrongGateway):
			c.JSON(http.StatusBadRequest, gin.H{"error": "order does not use this gateway"})
		default:
			// 5xx so the provider retries; guarded ledger updates make the
			// retry safe.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger unavailable"})
		}
		return
	}

	observ.ObserveOutcome(string(outcome), "webhook")
	if h.dedupe != nil {
		_ = h.dedupe.Remember(ctx, digest, string(outcome))
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func deliveryDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

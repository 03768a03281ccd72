package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexflow/easepay-confirm/internal/security"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-EasePay-Signature"

// WebhookAuth rejects provider callbacks that do not carry a valid
// shared-secret signature. Runs before any payload parsing so an
// unauthenticated caller learns nothing about orders.
type WebhookAuth struct {
	signer *security.WebhookSigner
}

func NewWebhookAuth(signer *security.WebhookSigner) *WebhookAuth {
	return &WebhookAuth{signer: signer}
}

func (wa *WebhookAuth) Verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		defer c.Request.Body.Close()

		sig := c.GetHeader(SignatureHeader)
		if sig == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
			return
		}
		if err := wa.signer.Verify(body, sig); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		// Hand the verified body to the handler.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Request.ContentLength = int64(len(body))

		c.Next()
	}
}

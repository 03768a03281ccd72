package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexflow/easepay-confirm/internal/security"
)

func newAuthRouter(t *testing.T, secret string) (*gin.Engine, *security.WebhookSigner) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := security.NewWebhookSigner(secret)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/webhook", NewWebhookAuth(signer).Verify(), func(c *gin.Context) {
		// Echo the body so the test can prove it survived verification.
		body, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.Data(http.StatusOK, "application/json", body)
	})
	return r, signer
}

func TestWebhookAuthAcceptsValidSignature(t *testing.T) {
	r, signer := newAuthRouter(t, "super-secret")
	body := `{"order_id":12,"status":"confirmed"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(SignatureHeader, signer.Sign([]byte(body)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.String(), "verified body must reach the handler intact")
}

func TestWebhookAuthRejectsMissingSignature(t *testing.T) {
	r, _ := newAuthRouter(t, "super-secret")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing signature")
}

func TestWebhookAuthRejectsInvalidSignature(t *testing.T) {
	r, signer := newAuthRouter(t, "super-secret")
	body := `{"order_id":12,"status":"confirmed"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"order_id":13}`))
	req.Header.Set(SignatureHeader, signer.Sign([]byte(body)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid signature")
}

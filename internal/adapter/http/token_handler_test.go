package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexflow/easepay-confirm/configs"
	"github.com/nexflow/easepay-confirm/internal/security"
)

const testJWTSecret = "test-jwt-secret"

func newTokenRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	var cfg configs.Config
	cfg.Security.JWTSecret = testJWTSecret
	cfg.Security.Issuer = "easepay-confirm"
	cfg.Security.Audience = "merchant-api"
	cfg.Security.TTL = 15 * time.Minute

	clients := security.ClientRegistry{
		"storefront": {ID: "storefront", Secret: "storefront-secret", Perms: []string{"orders.read", "orders.write"}, Enabled: true},
		"retired":    {ID: "retired", Secret: "retired-secret", Enabled: false},
	}

	r := gin.New()
	r.POST("/v1/token", NewTokenHandler(cfg, clients).IssueToken)
	return r
}

func postToken(r *gin.Engine, clientID, clientSecret string) *httptest.ResponseRecorder {
	form := url.Values{"client_id": {clientID}, "client_secret": {clientSecret}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueToken(t *testing.T) {
	r := newTokenRouter()

	w := postToken(r, "storefront", "storefront-secret")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "easepay-confirm", claims["iss"])
	assert.Equal(t, "storefront", claims["clientID"])
	assert.ElementsMatch(t, []any{"orders.read", "orders.write"}, claims["perms"])
}

func TestIssueTokenRejectsBadCredentials(t *testing.T) {
	r := newTokenRouter()

	cases := map[string][2]string{
		"wrong secret":    {"storefront", "guessed-secret"},
		"unknown client":  {"nobody", "storefront-secret"},
		"disabled client": {"retired", "retired-secret"},
		"empty secret":    {"storefront", ""},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			w := postToken(r, creds[0], creds[1])
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.NotContains(t, w.Body.String(), "access_token")
		})
	}
}

package triggers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(h *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r, "/webhooks")
	return r
}

func TestWebhookHappyPath(t *testing.T) {
	var gotParams map[string]any
	h := NewWebhookHandler(func(t *Webhook, params map[string]any) (map[string]any, error) {
		gotParams = params
		return map[string]any{"ok": true}, nil
	})
	trig := &Webhook{
		Base:           Base{ID: "w1", Name: "hook", Status: StatusActive},
		AllowedMethods: []string{"POST"},
		ExtractBody:    true,
	}
	path := h.Register(trig)

	router := newTestRouter(h)
	body, _ := json.Marshal(map[string]any{"hello": "world"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks"+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotParams)
	assert.Equal(t, map[string]any{"hello": "world"}, gotParams["body"])
}

func TestWebhookUnknownPathIs404(t *testing.T) {
	h := NewWebhookHandler(func(t *Webhook, params map[string]any) (map[string]any, error) { return nil, nil })
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	h := NewWebhookHandler(func(t *Webhook, params map[string]any) (map[string]any, error) { return nil, nil })
	trig := &Webhook{Base: Base{ID: "w2", Status: StatusActive}, AllowedMethods: []string{"POST"}}
	path := h.Register(trig)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/webhooks"+path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookRequiresAuth(t *testing.T) {
	h := NewWebhookHandler(func(t *Webhook, params map[string]any) (map[string]any, error) { return nil, nil })
	trig := &Webhook{
		Base:           Base{ID: "w3", Status: StatusActive},
		AllowedMethods: []string{"POST"},
		RequireAuth:    true,
		AuthToken:      "secret",
	}
	path := h.Register(trig)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks"+path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/webhooks"+path, nil)
	req2.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestWebhookDisabledTriggerIs503(t *testing.T) {
	h := NewWebhookHandler(func(t *Webhook, params map[string]any) (map[string]any, error) { return nil, nil })
	trig := &Webhook{Base: Base{ID: "w4", Status: StatusDisabled}, AllowedMethods: []string{"POST"}}
	path := h.Register(trig)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks"+path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhookRateLimit(t *testing.T) {
	h := NewWebhookHandler(func(t *Webhook, params map[string]any) (map[string]any, error) { return nil, nil })
	now := time.Now()
	h.nowFunc = func() time.Time { return now }
	trig := &Webhook{
		Base:            Base{ID: "w5", Status: StatusActive},
		AllowedMethods:  []string{"POST"},
		RateLimit:       1,
		RateLimitWindow: time.Minute,
	}
	path := h.Register(trig)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks"+path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/webhooks"+path, nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestValidAuthConstantTimeCompare(t *testing.T) {
	assert.True(t, validAuth("Bearer abc123", "abc123"))
	assert.True(t, validAuth("abc123", "abc123"))
	assert.False(t, validAuth("Bearer wrong", "abc123"))
	assert.False(t, validAuth("", "abc123"))
	assert.False(t, validAuth("Bearer abc123", ""))
}

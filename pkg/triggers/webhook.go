package triggers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WebhookFireFunc is invoked when an inbound request matches a registered
// webhook trigger. params carries the extracted body/query/header values
// merged over the trigger's static task_params.
type WebhookFireFunc func(t *Webhook, params map[string]any) (map[string]any, error)

// rateLimiter is a sliding-window limiter keyed by trigger id: each key's
// timestamp list is trimmed of anything outside the window, then appended
// to. Guarded by its own mutex since requests arrive concurrently across
// gin's handler goroutines.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{requests: make(map[string][]time.Time)}
}

func (r *rateLimiter) allow(key string, limit int, window time.Duration, now time.Time) bool {
	if limit <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-window)
	kept := r.requests[key][:0]
	for _, t := range r.requests[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= limit {
		r.requests[key] = kept
		return false
	}
	r.requests[key] = append(kept, now)
	return true
}

// WebhookHandler maps endpoint paths to registered Webhook triggers and
// serves them through gin, validating method/auth/rate-limit in that order
// before extracting params and firing.
type WebhookHandler struct {
	mu       sync.RWMutex
	byID     map[string]*Webhook
	byPath   map[string]*Webhook
	fire     WebhookFireFunc
	limiter  *rateLimiter
	nowFunc  func() time.Time
}

// NewWebhookHandler creates a handler that invokes fire for every accepted
// request.
func NewWebhookHandler(fire WebhookFireFunc) *WebhookHandler {
	return &WebhookHandler{
		byID:    make(map[string]*Webhook),
		byPath:  make(map[string]*Webhook),
		fire:    fire,
		limiter: newRateLimiter(),
		nowFunc: time.Now,
	}
}

// Register adds a webhook trigger under its endpoint path (defaulting to
// /<id> if unset). EndpointPath is relative to whatever prefix
// RegisterRoutes mounts the catch-all under.
func (h *WebhookHandler) Register(t *Webhook) string {
	if t.EndpointPath == "" {
		t.EndpointPath = "/" + t.ID
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byID[t.ID] = t
	h.byPath[t.EndpointPath] = t
	return t.EndpointPath
}

// Unregister removes a webhook trigger.
func (h *WebhookHandler) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.byID[id]; ok {
		delete(h.byPath, t.EndpointPath)
		delete(h.byID, id)
	}
}

// ByPath looks up a registered webhook by endpoint path.
func (h *WebhookHandler) ByPath(path string) (*Webhook, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.byPath[path]
	return t, ok
}

// RegisterRoutes wires a single catch-all gin route that dispatches to
// whichever trigger owns the incoming path, since endpoint paths are
// dynamic (registered at runtime, not known at router-build time).
func (h *WebhookHandler) RegisterRoutes(r gin.IRouter, prefix string) {
	r.Any(prefix+"/*path", h.handle)
}

func (h *WebhookHandler) handle(c *gin.Context) {
	path := strings.TrimSuffix(c.Param("path"), "/")
	t, ok := h.ByPath(path)
	if !ok {
		// gin's wildcard route always includes the leading slash; try with
		// it too since Register may have stored the bare form.
		t, ok = h.ByPath("/" + strings.TrimPrefix(path, "/"))
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "webhook not found", "status_code": http.StatusNotFound})
		return
	}

	if t.Status != StatusActive {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "webhook is " + string(t.Status), "status_code": http.StatusServiceUnavailable})
		return
	}

	if !methodAllowed(c.Request.Method, t.AllowedMethods) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "method not allowed", "status_code": http.StatusMethodNotAllowed})
		return
	}

	if t.RequireAuth && !validAuth(c.GetHeader("Authorization"), t.AuthToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication failed", "status_code": http.StatusUnauthorized})
		return
	}

	if t.RateLimit > 0 && !h.limiter.allow(t.ID, t.RateLimit, t.RateLimitWindow, h.nowFunc()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "rate limit exceeded", "status_code": http.StatusTooManyRequests})
		return
	}

	params := map[string]any{}
	if t.ExtractBody {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err == nil {
			params["body"] = body
		}
	}
	if t.ExtractQuery && len(c.Request.URL.Query()) > 0 {
		query := map[string]any{}
		for k, v := range c.Request.URL.Query() {
			if len(v) == 1 {
				query[k] = v[0]
			} else {
				query[k] = v
			}
		}
		params["query"] = query
	}
	if len(t.ExtractHeaders) > 0 {
		headers := map[string]any{}
		for _, name := range t.ExtractHeaders {
			if v := c.GetHeader(name); v != "" {
				headers[name] = v
			}
		}
		params["headers"] = headers
	}
	for k, v := range t.TaskParams {
		params[k] = v
	}

	result, err := h.fire(t, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error(), "status_code": http.StatusInternalServerError})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "webhook triggered successfully",
		"trigger_id":      t.ID,
		"trigger_name":    t.Name,
		"execution_count": t.ExecutionCount,
		"result":          result,
		"status_code":     http.StatusOK,
	})
}

func methodAllowed(method string, allowed []string) bool {
	for _, m := range allowed {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// validAuth constant-time-compares a bearer token against the trigger's
// configured secret.
func validAuth(header, token string) bool {
	if header == "" || token == "" {
		return false
	}
	candidate := header
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		candidate = header[len("Bearer "):]
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1
}

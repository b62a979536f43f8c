package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/paperball/internal/config"
)

func upgradeRequest(cfg *config.Config, origin string) int {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestWebSocketCORSCheck(t *testing.T) {
	dev := &config.Config{Environment: "development"}
	prod := &config.Config{Environment: "production", FrontendURL: "https://play.example.com"}

	if code := upgradeRequest(dev, "http://localhost:5173"); code != http.StatusOK {
		t.Errorf("dev localhost should pass, got %d", code)
	}
	if code := upgradeRequest(dev, ""); code != http.StatusBadRequest {
		t.Errorf("missing origin should 400, got %d", code)
	}
	if code := upgradeRequest(prod, "http://localhost:5173"); code != http.StatusForbidden {
		t.Errorf("prod should reject localhost, got %d", code)
	}
	if code := upgradeRequest(prod, "https://play.example.com"); code != http.StatusOK {
		t.Errorf("prod should accept FRONTEND_URL, got %d", code)
	}
	if code := upgradeRequest(prod, "https://paperball.playmatatu.com"); code != http.StatusOK {
		t.Errorf("prod should accept the game origin, got %d", code)
	}
}

func TestWebSocketCORSCheckSkipsPlainRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", WebSocketCORSCheck(&config.Config{Environment: "production"}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("plain request should pass through, got %d", w.Code)
	}
}

func preflight(cfg *config.Config, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(cfg))
	r.POST("/api/v1/session", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSPreflight(t *testing.T) {
	dev := &config.Config{Environment: "development"}
	prod := &config.Config{Environment: "production", FrontendURL: "https://play.example.com"}

	w := preflight(dev, "http://localhost:5173")
	if w.Code != http.StatusNoContent {
		t.Fatalf("dev preflight: expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("credentials should be allowed, got %q", got)
	}

	if w := preflight(prod, "https://play.example.com"); w.Code != http.StatusNoContent {
		t.Errorf("prod preflight from FRONTEND_URL: expected 204, got %d", w.Code)
	}
	if w := preflight(prod, "http://localhost:5173"); w.Code != http.StatusForbidden {
		t.Errorf("prod preflight from localhost: expected 403, got %d", w.Code)
	}
}

func TestAllowedOriginsDoNotLeakBetweenCalls(t *testing.T) {
	a := allowedOrigins(&config.Config{Environment: "production", FrontendURL: "https://a.example.com"})
	b := allowedOrigins(&config.Config{Environment: "production"})
	if len(a) != len(gameOrigins)+1 || len(b) != len(gameOrigins) {
		t.Fatalf("unexpected origin lists: %v %v", a, b)
	}
	if a[len(a)-1] != "https://a.example.com" {
		t.Errorf("FRONTEND_URL should be appended, got %v", a)
	}

	exposed := corsConfig(&config.Config{}).ExposeHeaders
	found := false
	for _, h := range exposed {
		found = found || h == "X-Session-Token"
	}
	if !found {
		t.Errorf("X-Session-Token must be exposed: %v", exposed)
	}
}

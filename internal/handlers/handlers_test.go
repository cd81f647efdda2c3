package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dice-game-backend/internal/config"
	"dice-game-backend/internal/handlers"
	"dice-game-backend/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		RTP:       0.98,
		MinBet:    0.0001,
		MaxBet:    1000,
		MaxWin:    10000,
		MinTarget: 1,
		MaxTarget: 99,
		Precision: 2,
		Currency:  "USD",
	}
}

// The verify and quote endpoints only touch the pure protocol core, so the
// service runs without any of its stateful collaborators.
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	gameService := services.NewGameService(nil, nil, nil, nil, zap.NewNop(), testConfig())
	gameHandler := handlers.NewGameHandler(gameService, zap.NewNop())
	verifyHandler := handlers.NewVerifyHandler(gameService)

	router := gin.New()
	router.POST("/api/verify", verifyHandler.Verify)
	router.GET("/api/game/config", gameHandler.GetConfig)
	router.GET("/api/game/multiplier", gameHandler.GetMultiplier)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestVerifyEndpoint(t *testing.T) {
	router := setupTestRouter()

	w, resp := doJSON(t, router, http.MethodPost, "/api/verify", map[string]interface{}{
		"server_seed":      "abc123",
		"server_seed_hash": "6ca13d52ca70c883e0f0bb101e425a89e8624de51db2d2392593af6a84118090",
		"client_seed":      "client123",
		"nonce":            0,
		"claimed_roll":     13.31288,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	verification, ok := resp["verification"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing verification object in %v", resp)
	}
	if verification["valid"] != true {
		t.Errorf("valid = %v, want true: %v", verification["valid"], verification)
	}
}

func TestVerifyEndpointDetectsTampering(t *testing.T) {
	router := setupTestRouter()

	w, resp := doJSON(t, router, http.MethodPost, "/api/verify", map[string]interface{}{
		"server_seed":      "abc124",
		"server_seed_hash": "6ca13d52ca70c883e0f0bb101e425a89e8624de51db2d2392593af6a84118090",
		"client_seed":      "client123",
		"nonce":            0,
		"claimed_roll":     13.31288,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (verification failure is not an HTTP error)", w.Code)
	}
	verification := resp["verification"].(map[string]interface{})
	if verification["valid"] != false {
		t.Error("tampered server seed verified as valid")
	}
	if verification["reason"] != "SEED_HASH_MISMATCH" {
		t.Errorf("reason = %v, want SEED_HASH_MISMATCH", verification["reason"])
	}
}

func TestVerifyEndpointRejectsBadJSON(t *testing.T) {
	router := setupTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMultiplierEndpoint(t *testing.T) {
	router := setupTestRouter()

	w, resp := doJSON(t, router, http.MethodGet, "/api/game/multiplier?target=50&direction=under&amount=100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", w.Code, resp)
	}

	data := resp["data"].(map[string]interface{})
	if data["win_chance"] != 50.0 {
		t.Errorf("win_chance = %v, want 50", data["win_chance"])
	}
	if data["multiplier"] != 1.96 {
		t.Errorf("multiplier = %v, want 1.96", data["multiplier"])
	}
	if data["potential_win"] != 196.0 {
		t.Errorf("potential_win = %v, want 196", data["potential_win"])
	}
}

func TestMultiplierEndpointValidation(t *testing.T) {
	router := setupTestRouter()

	paths := []string{
		"/api/game/multiplier",
		"/api/game/multiplier?target=0",
		"/api/game/multiplier?target=100",
		"/api/game/multiplier?target=50&direction=sideways",
		"/api/game/multiplier?target=50&amount=-1",
	}

	for _, path := range paths {
		w, _ := doJSON(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestConfigEndpoint(t *testing.T) {
	router := setupTestRouter()

	w, resp := doJSON(t, router, http.MethodGet, "/api/game/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	data := resp["data"].(map[string]interface{})
	if data["rtp"] != 0.98 {
		t.Errorf("rtp = %v, want 0.98", data["rtp"])
	}
	if data["max_target"] != 99.0 {
		t.Errorf("max_target = %v, want 99", data["max_target"])
	}
	if data["currency"] != "USD" {
		t.Errorf("currency = %v, want USD", data["currency"])
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"m2tracker/config"
	"m2tracker/models"
	"m2tracker/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{Servers: []config.ServerConfig{
		{ID: 426, Name: "[RUBY] Charon"},
		{ID: 702, Name: "Polska"},
	}}

	r := gin.New()
	SetupRoutes(r.Group("/api"), store, cfg)
	return r, store
}

func doGet(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: bad JSON response: %v", path, err)
	}
	return w.Code, body
}

func seed(t *testing.T, store *storage.Store) {
	t.Helper()
	listings := []models.RawListing{
		{Name: "Piece of Black Stone", Quantity: "200", Won: "4", Seller: "a"},
		{Name: "Piece of Black Stone", Quantity: "200", Won: "6", Seller: "b"},
		{Name: "Blessing Marble", Quantity: "10", Won: "2", Seller: "c"},
	}
	if _, err := store.Ingest(426, listings); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestListItems(t *testing.T) {
	r, store := newTestRouter(t)
	seed(t, store)

	code, body := doGet(t, r, "/api/items")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	items := body["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", items)
	}
	if body["server"].(float64) != 426 {
		t.Fatalf("expected default server, got %v", body["server"])
	}

	// Other partition is empty but still a valid response.
	code, body = doGet(t, r, "/api/items?server=702")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(body["items"].([]any)) != 0 {
		t.Fatalf("expected no items on other server")
	}
}

func TestUnknownServerFallsBack(t *testing.T) {
	r, store := newTestRouter(t)
	seed(t, store)

	for _, raw := range []string{"999", "-1", "bogus"} {
		code, body := doGet(t, r, "/api/items?server="+raw)
		if code != http.StatusOK {
			t.Fatalf("server=%s: status %d", raw, code)
		}
		if body["server"].(float64) != 426 {
			t.Fatalf("server=%s must fall back to the default, got %v", raw, body["server"])
		}
		if len(body["items"].([]any)) != 2 {
			t.Fatalf("server=%s must serve the default server's data, got %v", raw, body["items"])
		}
	}
}

func TestItemHistory(t *testing.T) {
	r, store := newTestRouter(t)
	seed(t, store)

	code, body := doGet(t, r, "/api/item/Piece%20of%20Black%20Stone")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	history := body["history"].([]any)
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	// No explicit limit or days still applies the default window.
	if body["limit_applied"] != true {
		t.Fatalf("expected default window to count as a limit")
	}

	stats, ok := body["statistics"].(map[string]any)
	if !ok {
		t.Fatalf("expected statistics in response")
	}
	if stats["min_price"].(float64) != 0.02 || stats["max_price"].(float64) != 0.03 {
		t.Fatalf("per-unit min/max wrong: %v / %v", stats["min_price"], stats["max_price"])
	}
	if body["total_quantity"].(float64) != 400 {
		t.Fatalf("total quantity wrong: %v", body["total_quantity"])
	}

	code, body = doGet(t, r, "/api/item/No%20Such%20Item")
	if code != http.StatusOK {
		t.Fatalf("unknown item must not error, got %d", code)
	}
	if len(body["history"].([]any)) != 0 {
		t.Fatalf("expected empty history for unknown item")
	}
	if body["statistics"] != nil {
		t.Fatalf("unknown item must have null statistics")
	}
}

func TestSearch(t *testing.T) {
	r, store := newTestRouter(t)
	seed(t, store)

	code, body := doGet(t, r, "/api/search?q=black")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	items := body["items"].([]any)
	if len(items) != 1 || items[0] != "Piece of Black Stone" {
		t.Fatalf("search results wrong: %v", items)
	}

	code, _ = doGet(t, r, "/api/search")
	if code != http.StatusBadRequest {
		t.Fatalf("missing query must 400, got %d", code)
	}
}

func TestStatistics(t *testing.T) {
	r, store := newTestRouter(t)
	seed(t, store)

	code, body := doGet(t, r, "/api/stats")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	stats := body["stats"].(map[string]any)
	stone := stats["Piece of Black Stone"].(map[string]any)
	if stone["min_price"].(float64) != 4 || stone["max_price"].(float64) != 6 {
		t.Fatalf("offer price stats wrong: %v", stone)
	}
}

func TestLatest(t *testing.T) {
	r, store := newTestRouter(t)

	code, body := doGet(t, r, "/api/latest")
	if code != http.StatusOK {
		t.Fatalf("empty store must not error, got %d", code)
	}
	if body["total_count"].(float64) != 0 {
		t.Fatalf("expected empty view, got %v", body)
	}

	seed(t, store)

	code, body = doGet(t, r, "/api/latest?limit=1")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("limit ignored: %d items", len(items))
	}
	if body["count"].(float64) != 1 {
		t.Fatalf("count must match the page, got %v", body["count"])
	}
	if body["total_count"].(float64) != 2 {
		t.Fatalf("total count must cover the snapshot, got %v", body["total_count"])
	}
	first := items[0].(map[string]any)
	if first["item_name"] != "Blessing Marble" {
		t.Fatalf("expected name-ordered page, got %v", first["item_name"])
	}
}

func TestServers(t *testing.T) {
	r, _ := newTestRouter(t)

	code, body := doGet(t, r, "/api/servers")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(body["servers"].([]any)) != 2 {
		t.Fatalf("expected 2 servers, got %v", body["servers"])
	}
	if body["default"].(float64) != 426 {
		t.Fatalf("default server wrong: %v", body["default"])
	}
}

package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"m2tracker/config"
	"m2tracker/storage"
)

// defaultHistoryDays bounds /api/item responses when the caller asks for
// neither a row limit nor a lookback window.
const defaultHistoryDays = 30

type APIHandler struct {
	store *storage.Store
	cfg   *config.Config
}

// SetupRoutes registers all read endpoints on the group and returns the
// handler for tests.
func SetupRoutes(r *gin.RouterGroup, store *storage.Store, cfg *config.Config) *APIHandler {
	h := &APIHandler{store: store, cfg: cfg}

	r.GET("/items", h.ListItems)
	r.GET("/item/:name", h.ItemHistory)
	r.GET("/search", h.Search)
	r.GET("/stats", h.Statistics)
	r.GET("/latest", h.Latest)
	r.GET("/servers", h.Servers)

	return h
}

// serverID resolves the server query param, falling back to the default
// partition when absent, unparseable, or not a configured server.
func (h *APIHandler) serverID(c *gin.Context) int {
	raw := c.Query("server")
	if raw == "" {
		return config.DefaultServerID
	}
	id, err := strconv.Atoi(raw)
	if err != nil || !h.cfg.KnownServer(id) {
		return config.DefaultServerID
	}
	return id
}

func intQuery(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h *APIHandler) ListItems(c *gin.Context) {
	serverID := h.serverID(c)

	items, err := h.store.ListItems(serverID)
	if err != nil {
		log.Printf("api: list items: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if items == nil {
		items = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"server": serverID, "items": items, "count": len(items)})
}

func (h *APIHandler) ItemHistory(c *gin.Context) {
	serverID := h.serverID(c)
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing item name"})
		return
	}

	limit := intQuery(c, "limit")
	days := intQuery(c, "days")
	if limit == 0 && days == 0 {
		days = defaultHistoryDays
	}

	history, err := h.store.ItemHistory(serverID, name, limit, days)
	if err != nil {
		log.Printf("api: item history %q: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	stats, err := h.store.ItemStatistics(serverID, name)
	if err != nil {
		log.Printf("api: item statistics %q: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	resp := gin.H{
		"server":        serverID,
		"item_name":     name,
		"history":       history,
		"count":         len(history),
		"statistics":    stats,
		"limit_applied": limit > 0 || days > 0,
	}
	if history == nil {
		resp["history"] = []any{}
	}
	if stats != nil {
		resp["total_quantity"] = stats.TotalQuantity
	}
	c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) Search(c *gin.Context) {
	serverID := h.serverID(c)
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	hits, err := h.store.SearchItems(serverID, query, intQuery(c, "limit"))
	if err != nil {
		log.Printf("api: search %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if hits == nil {
		hits = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"server": serverID, "query": query, "items": hits, "count": len(hits)})
}

func (h *APIHandler) Statistics(c *gin.Context) {
	serverID := h.serverID(c)

	stats, err := h.store.Statistics(serverID)
	if err != nil {
		log.Printf("api: statistics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"server": serverID, "stats": stats, "count": len(stats)})
}

func (h *APIHandler) Latest(c *gin.Context) {
	serverID := h.serverID(c)

	view, err := h.store.LatestView(serverID, intQuery(c, "limit"), intQuery(c, "offset"))
	if err != nil {
		log.Printf("api: latest view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"server":         serverID,
		"data":           view.Items,
		"count":          len(view.Items),
		"total_count":    view.TotalCount,
		"total_quantity": view.TotalQuantity,
		"last_update":    view.LastUpdate,
	})
}

func (h *APIHandler) Servers(c *gin.Context) {
	servers := make([]gin.H, 0, len(h.cfg.Servers))
	for _, s := range h.cfg.Servers {
		servers = append(servers, gin.H{"id": s.ID, "name": s.Name})
	}
	c.JSON(http.StatusOK, gin.H{"servers": servers, "default": config.DefaultServerID})
}

package market

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"m2tracker/httputil"
	"m2tracker/models"
)

// Client fetches store listings for a server. The JSON endpoint is the
// primary source; the rendered store page is a best-effort fallback.
type Client struct {
	storeURL   string
	clients    *httputil.Clients
	translator *Translator
}

func NewClient(storeURL, translationURL string, clients *httputil.Clients) *Client {
	return &Client{
		storeURL:   strings.TrimSuffix(storeURL, "/"),
		clients:    clients,
		translator: NewTranslator(translationURL, clients.Assets),
	}
}

// FetchListings returns the current listings for serverID. An empty
// slice with a nil error means the store is reachable but has nothing to
// sell right now.
func (c *Client) FetchListings(ctx context.Context, serverID int) ([]models.RawListing, error) {
	listings, err := c.fetchJSON(ctx, serverID)
	if err == nil && len(listings) > 0 {
		return listings, nil
	}
	if err != nil {
		log.Printf("market: JSON endpoint failed for server %d: %v", serverID, err)
	}

	fallback, ferr := c.fetchStorePage(ctx, serverID)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("server %d: %w (page fallback: %v)", serverID, err, ferr)
		}
		return listings, nil
	}
	if len(fallback) > 0 {
		log.Printf("market: server %d: %d listings via page fallback", serverID, len(fallback))
		return fallback, nil
	}
	return listings, nil
}

func (c *Client) fetchJSON(ctx context.Context, serverID int) ([]models.RawListing, error) {
	url := fmt.Sprintf("%s/public/data/%d.json", c.storeURL, serverID)

	// Cache-busting params mirror what the store frontend sends.
	resp, err := c.clients.Store.R().
		SetContext(ctx).
		SetQueryParam("v", strconv.FormatInt(time.Now().UnixMilli(), 10)).
		SetQueryParam("r", strconv.Itoa(rand.Intn(1_000_000))).
		Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("store API status %d", resp.StatusCode())
	}

	listings, err := ParseListings(resp.Body(), c.translator.Names(ctx))
	if err != nil {
		return nil, err
	}

	log.Printf("market: server %d: %d listings from API", serverID, len(listings))
	return listings, nil
}

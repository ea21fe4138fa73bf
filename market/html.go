package market

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"m2tracker/models"
)

// fetchStorePage scrapes the rendered store table. Used only when the
// JSON endpoint errors or comes back empty; the table carries the same
// columns the API does: name, quantity, yang, won, seller.
func (c *Client) fetchStorePage(ctx context.Context, serverID int) ([]models.RawListing, error) {
	resp, err := c.clients.Store.R().
		SetContext(ctx).
		SetQueryParam("server", strconv.Itoa(serverID)).
		Get(c.storeURL + "/")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("store page status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse store page: %w", err)
	}

	var listings []models.RawListing
	doc.Find("table.store-listings tbody tr, table#offers tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return strings.TrimSpace(cell.Text())
		})
		if len(cells) < 4 {
			return
		}

		listing := models.RawListing{
			Name:     cells[0],
			Quantity: cells[1],
			Yang:     cells[2],
			Won:      cells[3],
		}
		if len(cells) > 4 {
			listing.Seller = cells[4]
		}
		if listing.Name != "" {
			listings = append(listings, listing)
		}
	})

	return listings, nil
}

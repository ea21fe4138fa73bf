package httputil

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type Clients struct {
	Store  *resty.Client // marketplace JSON endpoints and store page
	Assets *resty.Client // translation files and other static assets
}

// NewClients builds the shared HTTP clients. Environment proxies are
// deliberately ignored: the store endpoint rejects common datacenter
// proxies and the fetch must go out directly.
func NewClients(timeout time.Duration) *Clients {
	store := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		RemoveProxy()

	assets := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		RemoveProxy()

	return &Clients{Store: store, Assets: assets}
}

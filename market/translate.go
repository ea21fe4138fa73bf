package market

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/go-resty/resty/v2"
)

// Translator resolves item vnums to localized names from a remote JSON
// map. The map is fetched once and cached for the process lifetime;
// every failure degrades to original names rather than erroring.
type Translator struct {
	url    string
	client *resty.Client

	once  sync.Once
	names map[string]string
}

func NewTranslator(url string, client *resty.Client) *Translator {
	return &Translator{url: url, client: client}
}

func (t *Translator) Names(ctx context.Context) map[string]string {
	t.once.Do(func() {
		t.names = map[string]string{}
		if t.url == "" {
			return
		}

		resp, err := t.client.R().SetContext(ctx).Get(t.url)
		if err != nil {
			log.Printf("translations: fetch failed: %v", err)
			return
		}
		if resp.StatusCode() != 200 {
			log.Printf("translations: unexpected status %d", resp.StatusCode())
			return
		}

		var names map[string]string
		if err := json.Unmarshal(resp.Body(), &names); err != nil {
			log.Printf("translations: bad payload: %v", err)
			return
		}

		t.names = names
		log.Printf("translations: loaded %d item names", len(names))
	})
	return t.names
}

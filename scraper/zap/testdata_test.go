package zap

import (
	"fmt"
	"strings"
	"time"

	"zap-scraper/config"
	"zap-scraper/models"
)

// statePage renders a results page that embeds listingsJSON the way the
// portal does, cleanup script included.
func statePage(listingsJSON string) string {
	return `<!DOCTYPE html><html><head><title>Zap</title>
<script src="/static/app.js"></script>
<script>window.dataLayer = [];</script>
</head><body><div id="app"></div>
<script>window.__INITIAL_STATE__={"page":{"name":"results"},"results":{"listings":` + listingsJSON +
		`,"totalCount":42}};(function(){var s;(s=document.currentScript||document.scripts[document.scripts.length-1]).parentNode.removeChild(s);}());</script>
</body></html>`
}

func listingJSON(id string, price int) string {
	return fmt.Sprintf(`{
		"listing": {
			"id": %q,
			"title": "Apartamento %s",
			"pricingInfos": [{"price": "%d", "monthlyCondoFee": "350", "yearlyIptu": "900"}],
			"usableAreas": [70],
			"bedrooms": [2],
			"bathrooms": [1],
			"parkingSpaces": [1],
			"address": {"street": "Rua A", "neighborhood": "Centro", "state": "MG"},
			"unitTypes": ["APARTMENT"]
		},
		"account": {"name": "Imobiliaria X"},
		"link": {"href": "/imovel/%s/"}
	}`, id, id, price, id)
}

func listingsJSON(ids ...string) string {
	parts := make([]string, 0, len(ids))
	for i, id := range ids {
		parts = append(parts, listingJSON(id, 1000+i*100))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Towns:          []string{"Belo Horizonte"},
		State:          "mg",
		Transaction:    models.Rent,
		UnitTypes:      []models.UnitType{models.Apartment},
		Pages:          1,
		BaseURL:        baseURL,
		LinkBase:       config.DefaultLinkBase,
		UserAgent:      "zap-scraper-test",
		RequestTimeout: 5 * time.Second,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
		Concurrency:    1,
		CSVOutputPath:  "data.csv",
	}
}

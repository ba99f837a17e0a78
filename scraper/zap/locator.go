package zap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"zap-scraper/models"
)

const (
	stateMarker   = "window.__INITIAL_STATE__="
	cleanupPrefix = ";(function(){"
)

// Locator finds the embedded state payload in a results page and returns
// its results.listings array.
type Locator struct{}

func NewLocator() *Locator {
	return &Locator{}
}

// Locate returns the raw listings of one page. An empty array is a valid,
// empty page.
func (l *Locator) Locate(body []byte) ([]models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var payload string
	found := false
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, stateMarker) {
			return true
		}
		payload = trimPayload(text)
		found = true
		return false
	})
	if !found {
		return nil, ErrPayloadNotFound
	}

	var state struct {
		Results *struct {
			Listings []any `json:"listings"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
	}
	if state.Results == nil || state.Results.Listings == nil {
		return nil, fmt.Errorf("%w: results.listings missing", ErrPayloadMalformed)
	}

	// Ad slots and other non-object entries are skipped.
	listings := make([]models.RawListing, 0, len(state.Results.Listings))
	for _, item := range state.Results.Listings {
		if obj, ok := item.(map[string]any); ok {
			listings = append(listings, obj)
		}
	}
	return listings, nil
}

// trimPayload strips the marker and the cleanup script the portal appends
// after the JSON object.
func trimPayload(text string) string {
	payload := strings.TrimPrefix(text, stateMarker)
	if i := strings.LastIndex(payload, cleanupPrefix); i >= 0 {
		payload = payload[:i]
	}
	return strings.TrimRight(strings.TrimSpace(payload), ";")
}

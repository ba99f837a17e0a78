package services

import (
	"net/url"
	"regexp"
	"strings"

	"zap-scraper/models"
)

var lineBreakRegexp = regexp.MustCompile(`(?i)<br\s*/?>`)

// Mapper turns raw portal listings into ListingRecords.
type Mapper struct {
	linkBase string
}

// NewMapper creates a Mapper. Links are made absolute against linkBase; an
// empty linkBase makes every link relative instead.
func NewMapper(linkBase string) *Mapper {
	return &Mapper{linkBase: strings.TrimRight(linkBase, "/")}
}

// Map never fails: every missing or malformed field degrades to its zero value.
func (m *Mapper) Map(raw models.RawListing) models.ListingRecord {
	return models.ListingRecord{
		Price:          floatOr(raw, "listing.pricingInfos.0.price", 0),
		CondominiumFee: floatOr(raw, "listing.pricingInfos.0.monthlyCondoFee", 0),
		PropertyTaxFee: floatOr(raw, "listing.pricingInfos.0.yearlyIptu", 0),
		FloorSizeSqm:   floatOr(raw, "listing.usableAreas", floatOr(raw, "listing.totalAreas", 0)),
		Bedrooms:       intOr(raw, "listing.bedrooms", 0),
		Bathrooms:      intOr(raw, "listing.bathrooms", 0),
		ParkingSpaces:  intOr(raw, "listing.parkingSpaces", 0),
		Address: joinAddress(
			stringAt(raw, "listing.address.street"),
			stringAt(raw, "listing.address.neighborhood"),
			stringAt(raw, "listing.address.state"),
		),
		Title:         stringAt(raw, "listing.title"),
		Link:          m.link(stringAt(raw, "link.href")),
		PublisherName: stringAt(raw, "account.name"),
		ListingID:     stringAt(raw, "listing.id"),
		UnitTypes:     stringsAt(raw, "listing.unitTypes"),
		Description:   cleanDescription(stringAt(raw, "listing.description")),
	}
}

// MapAll maps a page worth of listings, preserving order.
func (m *Mapper) MapAll(raws []models.RawListing) []models.ListingRecord {
	out := make([]models.ListingRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, m.Map(raw))
	}
	return out
}

func (m *Mapper) link(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if m.linkBase == "" {
		if u.IsAbs() {
			return u.RequestURI()
		}
		return href
	}
	if u.IsAbs() {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return m.linkBase + href
}

// joinAddress joins the non-empty parts with ", " and trims stray separators.
func joinAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, ", \t\n")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Trim(strings.Join(kept, ", "), ", \t\n")
}

// cleanDescription converts <br> markers to newlines and drops blank lines.
func cleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreakRegexp.ReplaceAllString(s, "\n")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

package models

import "strings"

// RawListing is one entry of the portal's embedded results.listings array,
// decoded as-is. Any key may be missing, null or an empty array.
type RawListing map[string]any

// ListingRecord is the normalized row written to CSV. Every field is always
// set; absent source data maps to the zero value.
type ListingRecord struct {
	Price          float64
	CondominiumFee float64
	PropertyTaxFee float64
	FloorSizeSqm   float64
	Bedrooms       int
	Bathrooms      int
	ParkingSpaces  int
	Address        string
	Title          string
	Link           string
	PublisherName  string
	ListingID      string
	UnitTypes      []string

	// Description is stored by the database sink only; it is not a CSV column.
	Description string
}

// Columns is the fixed CSV header, in output order.
var Columns = []string{
	"Price",
	"CondominiumFee",
	"PropertyTaxFee",
	"FloorSizeSqm",
	"Bedrooms",
	"Bathrooms",
	"ParkingSpaces",
	"Address",
	"Title",
	"Link",
	"PublisherName",
	"ListingID",
	"UnitTypes",
}

// UnitTypesCell renders the unit type list as a single CSV cell.
func (r ListingRecord) UnitTypesCell() string {
	return strings.Join(r.UnitTypes, ",")
}

// PageFailure records one page that could not be fetched or decoded.
type PageFailure struct {
	Criteria SearchCriteria
	Err      error
}

// RunResult is what the pagination driver hands back at the end of a run.
type RunResult struct {
	RunID    string
	Records  []ListingRecord
	Failures []PageFailure
	Pages    int
}

// SucceededPages is the number of pages that yielded a decodable payload.
func (r *RunResult) SucceededPages() int {
	return r.Pages - len(r.Failures)
}

// InsightReport holds the computed analytics over the collected records.
type InsightReport struct {
	TotalListings  int
	PricedListings int
	AveragePrice   float64
	MinPrice       float64
	MaxPrice       float64
	AvgPricePerSqm float64
	MostExpensive  *ListingRecord
	ByBedrooms     map[int]int
	FailedPages    int
	SucceededPages int
}

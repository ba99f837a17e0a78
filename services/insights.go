package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"zap-scraper/models"
	"zap-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarizes a finished run. Listings without a price are counted
// but left out of the price statistics.
func (s *InsightService) Generate(result *models.RunResult) *models.InsightReport {
	report := &models.InsightReport{
		ByBedrooms: make(map[int]int),
	}
	if result == nil {
		return report
	}

	report.FailedPages = len(result.Failures)
	report.SucceededPages = result.SucceededPages()
	report.TotalListings = len(result.Records)

	var total, perSqmTotal float64
	var perSqmCount int

	for i := range result.Records {
		l := &result.Records[i]
		report.ByBedrooms[l.Bedrooms]++

		if l.Price <= 0 {
			continue
		}
		report.PricedListings++
		total += l.Price
		if report.MostExpensive == nil || l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
		if report.MostExpensive == nil || l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
			report.MostExpensive = l
		}
		if l.FloorSizeSqm > 0 {
			perSqmTotal += l.Price / l.FloorSizeSqm
			perSqmCount++
		}
	}

	if report.PricedListings > 0 {
		report.AveragePrice = round2(total / float64(report.PricedListings))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}
	if perSqmCount > 0 {
		report.AvgPricePerSqm = round2(perSqmTotal / float64(perSqmCount))
	}

	s.logger.Debug("[insights] %d listings, %d priced, %d failed pages",
		report.TotalListings, report.PricedListings, report.FailedPages)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  ZAP IMÓVEIS SCRAPE INSIGHTS\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Listings collected : %d\n", r.TotalListings)
	fmt.Fprintf(w, "  Pages ok / failed  : %d / %d\n", r.SucceededPages, r.FailedPages)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Price Statistics\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Average price : R$ %.2f\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : R$ %.2f\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : R$ %.2f\n", r.MaxPrice)
		if r.AvgPricePerSqm > 0 {
			fmt.Fprintf(w, "  Avg price/m²  : R$ %.2f\n", r.AvgPricePerSqm)
		}
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "  Most Expensive Listing\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Title, 50))
		fmt.Fprintf(w, "  Address : %s\n", r.MostExpensive.Address)
		fmt.Fprintf(w, "  Price   : R$ %.2f\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  Listings by Bedrooms\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByBedrooms) == 0 {
		fmt.Fprintf(w, "  No listings\n")
	} else {
		keys := make([]int, 0, len(r.ByBedrooms))
		for k := range r.ByBedrooms {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			label := fmt.Sprintf("%d bedrooms", k)
			if k == 0 {
				label = "not informed"
			}
			fmt.Fprintf(w, "  %-16s %s (%d)\n", label, strings.Repeat("█", min(r.ByBedrooms[k], 30)), r.ByBedrooms[k])
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

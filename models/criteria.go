package models

import (
	"fmt"
	"strconv"
	"strings"

	"zap-scraper/utils"
)

// TransactionType is the portal's deal filter.
type TransactionType int

const (
	Sale TransactionType = iota
	Rent
	NewDevelopment
)

var transactionInfo = map[TransactionType]struct{ display, slug string }{
	Sale:           {"Venda", "venda"},
	Rent:           {"Aluguel", "aluguel"},
	NewDevelopment: {"Lançamentos", "lancamentos"},
}

func (t TransactionType) String() string {
	if info, ok := transactionInfo[t]; ok {
		return info.display
	}
	return "TransactionType(" + strconv.Itoa(int(t)) + ")"
}

// Slug is the URL path token for the transaction type.
func (t TransactionType) Slug() string {
	return transactionInfo[t].slug
}

// ParseTransactionType accepts the CLI selectors (comprar, alugar,
// lancamentos) as well as the URL slugs and display names.
func ParseTransactionType(s string) (TransactionType, error) {
	switch utils.Slugify(s) {
	case "comprar", "venda", "sale":
		return Sale, nil
	case "alugar", "aluguel", "rent":
		return Rent, nil
	case "lancamentos", "lancamento":
		return NewDevelopment, nil
	}
	return 0, fmt.Errorf("models: unknown transaction type %q", s)
}

// UnitType is the portal's property-kind filter.
type UnitType int

const (
	AllUnits UnitType = iota
	House
	Apartment
	Studio
)

var unitInfo = map[UnitType]struct{ display, slug string }{
	AllUnits:  {"Imóveis", "imoveis"},
	House:     {"Casas", "casas"},
	Apartment: {"Apartamentos", "apartamentos"},
	Studio:    {"Quitinetes", "quitinetes"},
}

func (u UnitType) String() string {
	if info, ok := unitInfo[u]; ok {
		return info.display
	}
	return "UnitType(" + strconv.Itoa(int(u)) + ")"
}

// Slug is the URL path token for the unit type.
func (u UnitType) Slug() string {
	return unitInfo[u].slug
}

// ParseUnitType accepts slugs, display names and a few singular forms.
func ParseUnitType(s string) (UnitType, error) {
	switch utils.Slugify(s) {
	case "imoveis", "imovel", "todos", "all":
		return AllUnits, nil
	case "casas", "casa", "house":
		return House, nil
	case "apartamentos", "apartamento", "apartment":
		return Apartment, nil
	case "quitinetes", "quitinete", "kitnet", "studio":
		return Studio, nil
	}
	return 0, fmt.Errorf("models: unknown unit type %q", s)
}

// ParseUnitTypes parses a comma-separated list, skipping blanks.
func ParseUnitTypes(s string) ([]UnitType, error) {
	var out []UnitType
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		u, err := ParseUnitType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// SearchCriteria identifies one search-results page.
type SearchCriteria struct {
	Transaction TransactionType
	UnitType    UnitType
	Town        string
	State       string
	Page        int
}

// Path builds the request path:
//
//	/{transaction}/{unit}/{state}+{town}/?pagina={page}
func (c SearchCriteria) Path() string {
	return fmt.Sprintf("/%s/%s/%s+%s/?pagina=%d",
		c.Transaction.Slug(), c.UnitType.Slug(), utils.Slugify(c.State), utils.Slugify(c.Town), c.Page)
}

func (c SearchCriteria) String() string {
	return fmt.Sprintf("%s/%s/%s-%s page %d", c.Transaction, c.UnitType, c.Town, strings.ToUpper(c.State), c.Page)
}

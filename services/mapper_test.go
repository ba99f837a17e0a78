package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zap-scraper/models"
)

func decodeRaw(t *testing.T, s string) models.RawListing {
	t.Helper()
	var raw models.RawListing
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

const fullListing = `{
	"listing": {
		"id": "2614839173",
		"title": "Apartamento com 3 quartos para alugar, 90m²",
		"description": "Ótimo apartamento.<br><br>Próximo ao metrô.<br />\n\n<br>Aceita pet.",
		"pricingInfos": [{"businessType": "RENTAL", "price": "2500", "monthlyCondoFee": "650", "yearlyIptu": "1200"}],
		"usableAreas": [90],
		"bedrooms": [3],
		"bathrooms": [2],
		"parkingSpaces": [1],
		"unitTypes": ["APARTMENT"],
		"address": {"street": "Rua da Bahia", "neighborhood": "Lourdes", "state": "Minas Gerais"}
	},
	"account": {"name": "Imobiliária Horizonte"},
	"link": {"href": "/imovel/aluguel-apartamento-3-quartos-lourdes-belo-horizonte-mg-90m2-id-2614839173/"}
}`

func TestMapperFullListing(t *testing.T) {
	m := NewMapper("https://www.zapimoveis.com.br")
	rec := m.Map(decodeRaw(t, fullListing))

	assert.Equal(t, 2500.0, rec.Price)
	assert.Equal(t, 650.0, rec.CondominiumFee)
	assert.Equal(t, 1200.0, rec.PropertyTaxFee)
	assert.Equal(t, 90.0, rec.FloorSizeSqm)
	assert.Equal(t, 3, rec.Bedrooms)
	assert.Equal(t, 2, rec.Bathrooms)
	assert.Equal(t, 1, rec.ParkingSpaces)
	assert.Equal(t, "Rua da Bahia, Lourdes, Minas Gerais", rec.Address)
	assert.Equal(t, "Apartamento com 3 quartos para alugar, 90m²", rec.Title)
	assert.Equal(t, "https://www.zapimoveis.com.br/imovel/aluguel-apartamento-3-quartos-lourdes-belo-horizonte-mg-90m2-id-2614839173/", rec.Link)
	assert.Equal(t, "Imobiliária Horizonte", rec.PublisherName)
	assert.Equal(t, "2614839173", rec.ListingID)
	assert.Equal(t, []string{"APARTMENT"}, rec.UnitTypes)
	assert.Equal(t, "Ótimo apartamento.\nPróximo ao metrô.\nAceita pet.", rec.Description)
}

func TestMapperEmptyPricingInfos(t *testing.T) {
	m := NewMapper("")
	rec := m.Map(decodeRaw(t, `{"listing": {"pricingInfos": [], "bedrooms": [2]}}`))

	assert.Zero(t, rec.Price)
	assert.Zero(t, rec.CondominiumFee)
	assert.Zero(t, rec.PropertyTaxFee)
	assert.Equal(t, 2, rec.Bedrooms)
}

func TestMapperAddressWithoutState(t *testing.T) {
	m := NewMapper("")
	rec := m.Map(decodeRaw(t, `{"listing": {"address": {"street": "Rua A", "neighborhood": "Centro", "state": ""}}}`))

	assert.Equal(t, "Rua A, Centro", rec.Address)
}

func TestJoinAddress(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"Rua A", "Centro", ""}, "Rua A, Centro"},
		{[]string{"", "Centro", "Minas Gerais"}, "Centro, Minas Gerais"},
		{[]string{"", "", ""}, ""},
		{[]string{" Rua B, ", " , ", "MG"}, "Rua B, MG"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinAddress(tt.parts...), "%q", tt.parts)
	}
}

func TestMapperTotality(t *testing.T) {
	m := NewMapper("https://www.zapimoveis.com.br")

	inputs := []string{
		`{}`,
		`null`,
		`{"listing": null, "account": null, "link": null}`,
		`{"listing": []}`,
		`{"listing": "oops"}`,
		`{"listing": {"pricingInfos": null, "usableAreas": [], "bedrooms": "muitos", "bathrooms": [null]}}`,
		`{"listing": {"pricingInfos": [null], "address": [], "unitTypes": 7, "id": 12345}}`,
		`{"listing": {"pricingInfos": [{"price": {"amount": 1}}]}, "link": {"href": 42}}`,
		`{"listing": {"pricingInfos": "R$ 100"}, "account": {"name": ["x"]}}`,
	}

	for _, in := range inputs {
		var raw models.RawListing
		require.NoError(t, json.Unmarshal([]byte(in), &raw), in)

		var rec models.ListingRecord
		assert.NotPanics(t, func() { rec = m.Map(raw) }, in)
		assert.NotNil(t, rec.UnitTypes, in)
		assert.GreaterOrEqual(t, rec.Price, 0.0, in)
	}
}

func TestMapperNumericIDAndUnitTypesString(t *testing.T) {
	m := NewMapper("")
	rec := m.Map(decodeRaw(t, `{"listing": {"id": 2614839173, "unitTypes": "HOME"}}`))

	assert.Equal(t, "2614839173", rec.ListingID)
	assert.Equal(t, []string{"HOME"}, rec.UnitTypes)
}

func TestMapperMultipleUnitTypesPassThrough(t *testing.T) {
	m := NewMapper("")
	rec := m.Map(decodeRaw(t, `{"listing": {"unitTypes": ["APARTMENT", "PENTHOUSE"]}}`))

	assert.Equal(t, []string{"APARTMENT", "PENTHOUSE"}, rec.UnitTypes)
	assert.Equal(t, "APARTMENT,PENTHOUSE", rec.UnitTypesCell())
}

func TestMapperFloorSizeFallsBackToTotalArea(t *testing.T) {
	m := NewMapper("")
	rec := m.Map(decodeRaw(t, `{"listing": {"usableAreas": [], "totalAreas": ["120"]}}`))
	assert.Equal(t, 120.0, rec.FloorSizeSqm)
}

func TestMapperLinkConsistency(t *testing.T) {
	rel := decodeRaw(t, `{"link": {"href": "/imovel/abc/"}}`)
	abs := decodeRaw(t, `{"link": {"href": "https://www.zapimoveis.com.br/imovel/def/?x=1"}}`)

	withBase := NewMapper("https://www.zapimoveis.com.br/")
	assert.Equal(t, "https://www.zapimoveis.com.br/imovel/abc/", withBase.Map(rel).Link)
	assert.Equal(t, "https://www.zapimoveis.com.br/imovel/def/?x=1", withBase.Map(abs).Link)

	relative := NewMapper("")
	assert.Equal(t, "/imovel/abc/", relative.Map(rel).Link)
	assert.Equal(t, "/imovel/def/?x=1", relative.Map(abs).Link)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"R$ 1.200", 1200, true},
		{"R$ 2.500,00 /mês", 2500, true},
		{"1.234.567", 1234567, true},
		{"70 m²", 70, true},
		{"70.5", 70.5, true},
		{"1.234,50", 1234.50, true},
		{"3", 3, true},
		{"Sob consulta", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseDecimal(tt.raw)
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "a\nb", cleanDescription("  a<BR/>\n\n <br>b  "))
	assert.Equal(t, "", cleanDescription("<br><br>"))
	assert.Equal(t, "", cleanDescription(""))
}

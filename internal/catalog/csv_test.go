package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"name,category,stock,purchasePrice,sellingPrice,lowStockThreshold",
		"Rice 5kg,Grocery,40,320,410,10",
		"Notebook A4,Stationery,80,22,40,20",
	}, "\n")

	inputs, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	require.Equal(t, "Rice 5kg", inputs[0].Name)
	require.Equal(t, "Grocery", inputs[0].Category)
	require.EqualValues(t, 40, inputs[0].Stock)
	require.InDelta(t, 320, inputs[0].PurchasePrice, 1e-9)
	require.InDelta(t, 410, inputs[0].SellingPrice, 1e-9)
	require.EqualValues(t, 10, inputs[0].LowStockThreshold)
	require.Equal(t, string(KindItem), inputs[0].Kind)
}

func TestParseCSVHeaderIsCaseInsensitiveAndReorderable(t *testing.T) {
	input := strings.Join([]string{
		"SellingPrice,NAME,stock",
		"99,Sugar 1kg,15",
	}, "\n")

	inputs, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.Equal(t, "Sugar 1kg", inputs[0].Name)
	require.EqualValues(t, 15, inputs[0].Stock)
	require.InDelta(t, 99, inputs[0].SellingPrice, 1e-9)
	require.Zero(t, inputs[0].PurchasePrice, "missing columns default to zero")
}

func TestParseCSVMissingNameColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("stock,sellingPrice\n5,10"))
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "name", vErr.Field)
}

func TestParseCSVBadNumber(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("name,stock\nRice,lots"))
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "stock", vErr.Field)
}

func TestWriteCSVRoundTrips(t *testing.T) {
	products := []Product{
		{ID: "1", Name: "Rice 5kg", Kind: KindItem, Stock: 40, PurchasePrice: 320.5, SellingPrice: 410, Category: "Grocery", LowStockThreshold: 10},
		{ID: "2", Name: "Photocopy", Kind: KindService, SellingPrice: 2, Category: "Services"},
	}

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, products))

	parsed, err := ParseCSV(strings.NewReader(sb.String()))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	require.Equal(t, "Rice 5kg", parsed[0].Name)
	require.InDelta(t, 320.5, parsed[0].PurchasePrice, 1e-9)
	require.Equal(t, "Photocopy", parsed[1].Name)
}

package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSummaryToleratesMalformedDocuments(t *testing.T) {
	require.Equal(t, DefaultSummary(), decodeSummary(nil))
	require.Equal(t, DefaultSummary(), decodeSummary([]byte(`{broken`)))

	// A partial document keeps what decoded and fills the rest.
	partial := decodeSummary([]byte(`{"allTime":{"totalRevenue":55}}`))
	require.InDelta(t, 55, partial.AllTime.TotalRevenue, 1e-9)
	require.NotNil(t, partial.Daily)
	require.NotNil(t, partial.AllTime.PaymentModeStats)
	require.NotNil(t, partial.AllTime.TopSellingItems)
}

func TestDecodeSaleItems(t *testing.T) {
	profit, sold := decodeSaleItems([]byte(`[
		{"productName":"Rice","quantity":2,"pricePerItem":400,"purchasePricePerItem":300},
		{"productName":"Copy","quantity":10,"pricePerItem":2}
	]`))
	require.InDelta(t, 220, profit, 1e-9)
	require.Equal(t, []SoldItem{
		{Name: "Rice", Quantity: 2},
		{Name: "Copy", Quantity: 10},
	}, sold)

	profit, sold = decodeSaleItems([]byte(`broken`))
	require.Zero(t, profit)
	require.Nil(t, sold)
}

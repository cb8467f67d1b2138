package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestApplyProductLifecycle(t *testing.T) {
	s := DefaultSummary()

	s = ApplyProductAdded(s, ProductFacts{IsItem: true, Stock: 12})
	s = ApplyProductAdded(s, ProductFacts{IsItem: false, Stock: 99})
	require.EqualValues(t, 2, s.AllTime.TotalProducts)
	require.EqualValues(t, 12, s.AllTime.TotalStock, "service stock must not count")

	// Restock the item.
	s = ApplyProductUpdated(s, ProductFacts{IsItem: true, Stock: 12}, ProductFacts{IsItem: true, Stock: 20})
	require.EqualValues(t, 20, s.AllTime.TotalStock)

	// Convert the item to a service; its stock leaves the total.
	s = ApplyProductUpdated(s, ProductFacts{IsItem: true, Stock: 20}, ProductFacts{IsItem: false, Stock: 0})
	require.EqualValues(t, 0, s.AllTime.TotalStock)

	// And back to an item.
	s = ApplyProductUpdated(s, ProductFacts{IsItem: false, Stock: 0}, ProductFacts{IsItem: true, Stock: 5})
	require.EqualValues(t, 5, s.AllTime.TotalStock)

	s = ApplyProductDeleted(s, ProductFacts{IsItem: true, Stock: 5})
	require.EqualValues(t, 1, s.AllTime.TotalProducts)
	require.EqualValues(t, 0, s.AllTime.TotalStock)
}

func TestApplySaleRecorded(t *testing.T) {
	s := DefaultSummary()
	s = ApplyProductAdded(s, ProductFacts{IsItem: true, Stock: 10})

	occurred := ts("2026-03-15T18:30:00+05:30")
	s = ApplySaleRecorded(s, SaleFacts{
		TotalAmount: 27,
		Profit:      12,
		Mode:        PaymentModeCash,
		OccurredAt:  occurred,
		StockChange: -3,
		Items:       []SoldItem{{Name: "Widget", Quantity: 3}},
	})

	require.InDelta(t, 27, s.AllTime.TotalRevenue, 1e-9)
	require.InDelta(t, 12, s.AllTime.TotalProfit, 1e-9)
	require.EqualValues(t, 7, s.AllTime.TotalStock)
	require.InDelta(t, 27, s.AllTime.PaymentModeStats[PaymentModeCash], 1e-9)

	// 18:30 IST on the 15th is 13:00 UTC on the 15th.
	require.InDelta(t, 27, s.Daily["2026-03-15"].Revenue, 1e-9)
	require.InDelta(t, 12, s.Daily["2026-03-15"].Profit, 1e-9)
	require.InDelta(t, 27, s.Monthly["2026-03"].Revenue, 1e-9)

	require.Equal(t, []TopSellingItem{{Name: "Widget", Quantity: 3}}, s.AllTime.TopSellingItems)
}

func TestDayKeyCrossesMidnightUTC(t *testing.T) {
	// 01:30 IST on the 16th is still the 15th in UTC.
	occurred := ts("2026-03-16T01:30:00+05:30")
	require.Equal(t, "2026-03-15", DayKey(occurred))
	require.Equal(t, "2026-03", MonthKey(occurred))
}

func TestTopSellersRankingAndTruncation(t *testing.T) {
	s := DefaultSummary()
	s.AllTime.TopSellingItems = []TopSellingItem{
		{Name: "A", Quantity: 10},
		{Name: "B", Quantity: 7},
		{Name: "C", Quantity: 7},
		{Name: "D", Quantity: 3},
		{Name: "E", Quantity: 1},
	}

	s = ApplySaleRecorded(s, SaleFacts{
		Mode:       PaymentModeUPI,
		OccurredAt: ts("2026-04-01T10:00:00Z"),
		Items: []SoldItem{
			{Name: "C", Quantity: 1},
			{Name: "F", Quantity: 2},
		},
	})

	require.Equal(t, []TopSellingItem{
		{Name: "A", Quantity: 10},
		{Name: "C", Quantity: 8},
		{Name: "B", Quantity: 7},
		{Name: "D", Quantity: 3},
		{Name: "F", Quantity: 2},
	}, s.AllTime.TopSellingItems)
}

func TestTopSellersTieKeepsFirstSeenOrder(t *testing.T) {
	s := DefaultSummary()
	s = ApplySaleRecorded(s, SaleFacts{
		Mode:       PaymentModeCash,
		OccurredAt: ts("2026-04-01T10:00:00Z"),
		Items:      []SoldItem{{Name: "X", Quantity: 4}, {Name: "Y", Quantity: 4}},
	})
	require.Equal(t, []TopSellingItem{
		{Name: "X", Quantity: 4},
		{Name: "Y", Quantity: 4},
	}, s.AllTime.TopSellingItems)
}

func TestApplySalesCleared(t *testing.T) {
	s := DefaultSummary()
	s = ApplyProductAdded(s, ProductFacts{IsItem: true, Stock: 40})
	s = ApplyProductAdded(s, ProductFacts{IsItem: true, Stock: 0})
	s = ApplyProductAdded(s, ProductFacts{IsItem: false})
	s = ApplySaleRecorded(s, SaleFacts{
		TotalAmount: 100, Profit: 30, Mode: PaymentModeUPI,
		OccurredAt: ts("2026-02-02T12:00:00Z"),
		Items:      []SoldItem{{Name: "Widget", Quantity: 2}},
	})

	cleared := ApplySalesCleared(s)
	require.EqualValues(t, 3, cleared.AllTime.TotalProducts)
	require.EqualValues(t, 40, cleared.AllTime.TotalStock)
	require.Zero(t, cleared.AllTime.TotalRevenue)
	require.Zero(t, cleared.AllTime.TotalProfit)
	require.Empty(t, cleared.AllTime.TopSellingItems)
	require.Empty(t, cleared.Daily)
	require.Empty(t, cleared.Monthly)
	for _, mode := range PaymentModes() {
		require.Zero(t, cleared.AllTime.PaymentModeStats[mode])
	}
}

func TestApplySaleRecordedDoesNotMutateInput(t *testing.T) {
	base := DefaultSummary()
	base.AllTime.TopSellingItems = []TopSellingItem{{Name: "A", Quantity: 1}}
	base.Daily["2026-01-01"] = PeriodStats{Revenue: 5}

	_ = ApplySaleRecorded(base, SaleFacts{
		TotalAmount: 10, Mode: PaymentModeCash,
		OccurredAt: ts("2026-01-01T09:00:00Z"),
		Items:      []SoldItem{{Name: "A", Quantity: 2}},
	})

	require.Equal(t, []TopSellingItem{{Name: "A", Quantity: 1}}, base.AllTime.TopSellingItems)
	require.InDelta(t, 5, base.Daily["2026-01-01"].Revenue, 1e-9)
	require.Zero(t, base.AllTime.TotalRevenue)
}

func TestDisjointSalesCommute(t *testing.T) {
	saleA := SaleFacts{
		TotalAmount: 50, Profit: 10, Mode: PaymentModeCash,
		OccurredAt: ts("2026-05-01T08:00:00Z"), StockChange: -2,
		Items: []SoldItem{{Name: "Rice", Quantity: 2}},
	}
	saleB := SaleFacts{
		TotalAmount: 30, Profit: 5, Mode: PaymentModeUPI,
		OccurredAt: ts("2026-05-02T08:00:00Z"), StockChange: -1,
		Items: []SoldItem{{Name: "Oil", Quantity: 1}},
	}

	ab := ApplySaleRecorded(ApplySaleRecorded(DefaultSummary(), saleA), saleB)
	ba := ApplySaleRecorded(ApplySaleRecorded(DefaultSummary(), saleB), saleA)

	require.Equal(t, ab.AllTime.TotalRevenue, ba.AllTime.TotalRevenue)
	require.Equal(t, ab.AllTime.TotalProfit, ba.AllTime.TotalProfit)
	require.Equal(t, ab.AllTime.TotalStock, ba.AllTime.TotalStock)
	require.Equal(t, ab.Daily, ba.Daily)
	require.Equal(t, ab.Monthly, ba.Monthly)
	require.Equal(t, ab.AllTime.PaymentModeStats, ba.AllTime.PaymentModeStats)
	require.ElementsMatch(t, ab.AllTime.TopSellingItems, ba.AllTime.TopSellingItems)
}

func TestNormalizeFillsMissingStructure(t *testing.T) {
	s := Summary{}
	n := s.Normalize()
	require.NotNil(t, n.AllTime.TopSellingItems)
	require.NotNil(t, n.Daily)
	require.NotNil(t, n.Monthly)
	for _, mode := range PaymentModes() {
		_, ok := n.AllTime.PaymentModeStats[mode]
		require.True(t, ok, "mode %s missing", mode)
	}
}

func TestParsePaymentModeFallsBackToCash(t *testing.T) {
	require.Equal(t, PaymentModeUPI, ParsePaymentMode("UPI"))
	require.Equal(t, PaymentModeCash, ParsePaymentMode("cheque"))
	require.Equal(t, PaymentModeCash, ParsePaymentMode(""))
	require.True(t, IsValidPaymentMode("BankTransfer"))
	require.False(t, IsValidPaymentMode("bank"))
}

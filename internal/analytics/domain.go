package analytics

// PaymentMode enumerates how a sale was paid. The analytics summary keys its
// per-mode revenue map by these values, so the enumeration lives with the
// document schema.
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "Cash"
	PaymentModeUPI          PaymentMode = "UPI"
	PaymentModeBankTransfer PaymentMode = "BankTransfer"
	PaymentModeOther        PaymentMode = "Other"
)

// PaymentModes lists every supported mode in canonical order.
func PaymentModes() []PaymentMode {
	return []PaymentMode{PaymentModeCash, PaymentModeUPI, PaymentModeBankTransfer, PaymentModeOther}
}

// ParsePaymentMode coerces arbitrary stored values to a known mode. Unknown
// values fall back to Cash so partially-correct records stay readable.
func ParsePaymentMode(v string) PaymentMode {
	switch PaymentMode(v) {
	case PaymentModeCash, PaymentModeUPI, PaymentModeBankTransfer, PaymentModeOther:
		return PaymentMode(v)
	default:
		return PaymentModeCash
	}
}

// IsValidPaymentMode reports whether v names a supported mode exactly.
func IsValidPaymentMode(v string) bool {
	switch PaymentMode(v) {
	case PaymentModeCash, PaymentModeUPI, PaymentModeBankTransfer, PaymentModeOther:
		return true
	}
	return false
}

// TopSellingItem is one entry of the all-time best-sellers ranking.
type TopSellingItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// PeriodStats aggregates revenue and profit for one calendar day or month.
type PeriodStats struct {
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// AllTimeStats is the lifetime tier of the summary document.
type AllTimeStats struct {
	TotalRevenue     float64                 `json:"totalRevenue"`
	TotalProfit      float64                 `json:"totalProfit"`
	TotalProducts    int64                   `json:"totalProducts"`
	TotalStock       int64                   `json:"totalStock"`
	TopSellingItems  []TopSellingItem        `json:"topSellingItems"`
	PaymentModeStats map[PaymentMode]float64 `json:"paymentModeStats"`
}

// Summary is the denormalized per-tenant analytics document. It is a
// materialized view over the product and sale records: every mutation of
// either rewrites it inside the same transaction, and the dashboard renders
// from it alone.
type Summary struct {
	AllTime AllTimeStats           `json:"allTime"`
	Daily   map[string]PeriodStats `json:"daily"`
	Monthly map[string]PeriodStats `json:"monthly"`
}

// DefaultSummary returns a structurally-complete zeroed summary with every
// payment mode initialised.
func DefaultSummary() Summary {
	modes := make(map[PaymentMode]float64, 4)
	for _, m := range PaymentModes() {
		modes[m] = 0
	}
	return Summary{
		AllTime: AllTimeStats{
			TopSellingItems:  []TopSellingItem{},
			PaymentModeStats: modes,
		},
		Daily:   map[string]PeriodStats{},
		Monthly: map[string]PeriodStats{},
	}
}

// Normalize fills in missing structure on a summary read from storage.
// Numeric fields keep whatever value survived; nil maps and slices become
// empty ones and unknown payment-mode keys are preserved as-is.
func (s Summary) Normalize() Summary {
	if s.AllTime.TopSellingItems == nil {
		s.AllTime.TopSellingItems = []TopSellingItem{}
	}
	if s.AllTime.PaymentModeStats == nil {
		s.AllTime.PaymentModeStats = map[PaymentMode]float64{}
	}
	for _, m := range PaymentModes() {
		if _, ok := s.AllTime.PaymentModeStats[m]; !ok {
			s.AllTime.PaymentModeStats[m] = 0
		}
	}
	if s.Daily == nil {
		s.Daily = map[string]PeriodStats{}
	}
	if s.Monthly == nil {
		s.Monthly = map[string]PeriodStats{}
	}
	return s
}

// Clone deep-copies the summary so aggregator functions can stay pure.
func (s Summary) Clone() Summary {
	out := s
	out.AllTime.TopSellingItems = make([]TopSellingItem, len(s.AllTime.TopSellingItems))
	copy(out.AllTime.TopSellingItems, s.AllTime.TopSellingItems)
	out.AllTime.PaymentModeStats = make(map[PaymentMode]float64, len(s.AllTime.PaymentModeStats))
	for k, v := range s.AllTime.PaymentModeStats {
		out.AllTime.PaymentModeStats[k] = v
	}
	out.Daily = make(map[string]PeriodStats, len(s.Daily))
	for k, v := range s.Daily {
		out.Daily[k] = v
	}
	out.Monthly = make(map[string]PeriodStats, len(s.Monthly))
	for k, v := range s.Monthly {
		out.Monthly[k] = v
	}
	return out
}

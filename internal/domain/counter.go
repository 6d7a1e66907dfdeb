package domain

// CounterTable identifies one of the counter destinations. Counter tables
// support a single operation on the write path: an atomic add of amount and
// count, with no prior read.
type CounterTable string

const (
	CounterSpendingByCategory     CounterTable = "spending_by_category"
	CounterSpendingByUserCategory CounterTable = "spending_by_user_category"
	CounterMerchantStatistics     CounterTable = "merchant_statistics"
	CounterPaymentMethodStats     CounterTable = "payment_method_stats"
)

// CounterTables lists every counter destination in a stable order.
var CounterTables = []CounterTable{
	CounterSpendingByCategory,
	CounterSpendingByUserCategory,
	CounterMerchantStatistics,
	CounterPaymentMethodStats,
}

// CounterKey addresses one row of a counter table. Secondary is set only for
// the user x category table; it is empty for single-dimension tables.
type CounterKey struct {
	Primary   string
	Secondary string
}

// CounterRow is the stored aggregate for one counter key. Totals are
// monotonically non-decreasing for the lifetime of a key.
type CounterRow struct {
	Key              CounterKey
	TotalAmountMinor int64
	TransactionCount int64
}

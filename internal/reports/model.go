package reports

// TopItem is one row of the "most withdrawn" ranking.
type TopItem struct {
	ItemName        string  `json:"item_name"`
	TotalQuantity   float64 `json:"total_quantity"`
	WithdrawalCount int     `json:"withdrawal_count"`
}

type MonthlyReport struct {
	Month            string    `json:"month"`       // YYYY-MM
	MonthLabel       string    `json:"month_label"` // e.g. "Agosto 2026"
	TotalWithdrawals int       `json:"total_withdrawals"`
	TotalQuantity    float64   `json:"total_quantity"`
	UniqueUsers      int       `json:"unique_users"`
	TopItems         []TopItem `json:"top_items"`
}

// DashboardStats backs the workspace landing cards.
type DashboardStats struct {
	TotalItems         int64 `json:"total_items"`
	TotalWithdrawals   int64 `json:"total_withdrawals"`
	MonthlyWithdrawals int64 `json:"monthly_withdrawals"`
	LowStockItems      int64 `json:"low_stock_items"`
	OutOfStockItems    int64 `json:"out_of_stock_items"`
}

package kpi

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// NullFloat is a scalar that may be undefined, e.g. a ratio whose
// denominator is zero. Undefined values encode as null.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func Defined(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

func ratio(num, den float64) NullFloat {
	if den == 0 {
		return NullFloat{}
	}
	return Defined(num / den)
}

// Or returns the value, or def when undefined.
func (n NullFloat) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Float64
}

func (n NullFloat) String() string {
	if !n.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", n.Float64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Float64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullFloat) MarshalYAML() (any, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// Point is one entry of a grouped aggregate.
type Point struct {
	Key   string  `json:"key" yaml:"key"`
	Value float64 `json:"value" yaml:"value"`
}

// Series is a grouped aggregate ordered by key.
type Series []Point

func (s Series) Sum() float64 {
	var total float64
	for _, p := range s {
		total += p.Value
	}
	return total
}

func (s Series) Get(key string) (float64, bool) {
	for _, p := range s {
		if p.Key == key {
			return p.Value, true
		}
	}
	return 0, false
}

func (s Series) Keys() []string {
	keys := make([]string, len(s))
	for i, p := range s {
		keys[i] = p.Key
	}
	return keys
}

// Growth is the percentage change between the first and last value of a
// time-ordered series. It is undefined for fewer than two periods or a zero
// first period.
func (s Series) Growth() NullFloat {
	if len(s) < 2 {
		return NullFloat{}
	}
	first, last := s[0].Value, s[len(s)-1].Value
	if first == 0 {
		return NullFloat{}
	}
	return Defined((last - first) / first * 100)
}

// Top returns at most n leading items. n <= 0 returns all of them.
func Top[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// Report is the full KPI result, one typed section per category. The JSON
// keys are the stable metric identifiers consumed by renderers.
type Report struct {
	Revenue       RevenueKPIs       `json:"revenue" yaml:"revenue"`
	Profitability ProfitabilityKPIs `json:"profitability" yaml:"profitability"`
	Products      ProductKPIs       `json:"products" yaml:"products"`
	Customers     CustomerKPIs      `json:"customers" yaml:"customers"`
	Operational   OperationalKPIs   `json:"operational" yaml:"operational"`
}

type RevenueKPIs struct {
	TotalRevenue      float64   `json:"total_revenue" yaml:"total_revenue"`
	AverageOrderValue NullFloat `json:"average_order_value" yaml:"average_order_value"`
	ByRegion          Series    `json:"revenue_by_region" yaml:"revenue_by_region"`
	ByChannel         Series    `json:"revenue_by_channel" yaml:"revenue_by_channel"`
	Daily             Series    `json:"daily_revenue" yaml:"daily_revenue"`
	Monthly           Series    `json:"monthly_revenue" yaml:"monthly_revenue"`
	Growth            NullFloat `json:"revenue_growth" yaml:"revenue_growth"`
}

type ProfitabilityKPIs struct {
	TotalProfit  float64   `json:"total_profit" yaml:"total_profit"`
	TotalCost    float64   `json:"total_cost" yaml:"total_cost"`
	ProfitMargin NullFloat `json:"profit_margin" yaml:"profit_margin"`
	ByRegion     Series    `json:"profit_by_region" yaml:"profit_by_region"`
	ByChannel    Series    `json:"profit_by_channel" yaml:"profit_by_channel"`
	Daily        Series    `json:"daily_profit" yaml:"daily_profit"`
	Monthly      Series    `json:"monthly_profit" yaml:"monthly_profit"`
	Growth       NullFloat `json:"profit_growth" yaml:"profit_growth"`
}

type ProductStat struct {
	ProductID    int       `json:"product_id" yaml:"product_id"`
	Revenue      float64   `json:"revenue" yaml:"revenue"`
	Quantity     int       `json:"quantity" yaml:"quantity"`
	Customers    int       `json:"customers" yaml:"customers"`
	Cost         float64   `json:"cost" yaml:"cost"`
	Profit       float64   `json:"profit" yaml:"profit"`
	ProfitMargin NullFloat `json:"profit_margin" yaml:"profit_margin"`
	AveragePrice NullFloat `json:"average_price" yaml:"average_price"`
}

type ProductKPIs struct {
	Products      []ProductStat `json:"products" yaml:"products"`
	TopByRevenue  []ProductStat `json:"top_products_by_revenue" yaml:"top_products_by_revenue"`
	TopByQuantity []ProductStat `json:"top_products_by_quantity" yaml:"top_products_by_quantity"`
	ByProfit      []ProductStat `json:"product_profitability" yaml:"product_profitability"`
}

type CustomerStat struct {
	CustomerID        int       `json:"customer_id" yaml:"customer_id"`
	TotalSpent        float64   `json:"total_spent" yaml:"total_spent"`
	Orders            int       `json:"orders" yaml:"orders"`
	FirstPurchase     time.Time `json:"first_purchase" yaml:"first_purchase"`
	LastPurchase      time.Time `json:"last_purchase" yaml:"last_purchase"`
	AverageOrderValue float64   `json:"average_order_value" yaml:"average_order_value"`
	LifetimeDays      int       `json:"lifetime_days" yaml:"lifetime_days"`
	Tier              string    `json:"tier" yaml:"tier"`
}

// Segment is one spend tier. Bounds are the quartile edges of the current
// customer population; a tier holds customers with LowerBound < spend <= UpperBound
// (the lowest tier also holds the minimum).
type Segment struct {
	Tier       string  `json:"tier" yaml:"tier"`
	Customers  int     `json:"customers" yaml:"customers"`
	Revenue    float64 `json:"revenue" yaml:"revenue"`
	LowerBound float64 `json:"lower_bound" yaml:"lower_bound"`
	UpperBound float64 `json:"upper_bound" yaml:"upper_bound"`
}

type CustomerKPIs struct {
	UniqueCustomers        int            `json:"unique_customers" yaml:"unique_customers"`
	AvgRevenuePerCustomer  NullFloat      `json:"avg_revenue_per_customer" yaml:"avg_revenue_per_customer"`
	Customers              []CustomerStat `json:"customers" yaml:"customers"`
	TopCustomers           []CustomerStat `json:"top_customers" yaml:"top_customers"`
	ByRegion               Series         `json:"customers_by_region" yaml:"customers_by_region"`
	Segments               []Segment      `json:"customer_segments" yaml:"customer_segments"`
	SegmentationDegenerate bool           `json:"segmentation_degenerate" yaml:"segmentation_degenerate"`
}

// Matrix is a zero-filled two-way table, Values[row][column].
type Matrix struct {
	Rows    []string    `json:"rows" yaml:"rows"`
	Columns []string    `json:"columns" yaml:"columns"`
	Values  [][]float64 `json:"values" yaml:"values"`
}

func (m Matrix) At(row, column string) float64 {
	for i, r := range m.Rows {
		if r != row {
			continue
		}
		for j, c := range m.Columns {
			if c == column {
				return m.Values[i][j]
			}
		}
	}
	return 0
}

type BreakdownRow struct {
	Date         string    `json:"date" yaml:"date"`
	Region       string    `json:"region" yaml:"region"`
	Channel      string    `json:"channel" yaml:"channel"`
	SalesAmount  float64   `json:"sales_amount" yaml:"sales_amount"`
	Cost         float64   `json:"cost" yaml:"cost"`
	Quantity     int       `json:"quantity" yaml:"quantity"`
	Profit       float64   `json:"profit" yaml:"profit"`
	ProfitMargin NullFloat `json:"profit_margin" yaml:"profit_margin"`
}

type OperationalKPIs struct {
	OrdersByDay        Series         `json:"orders_by_day" yaml:"orders_by_day"`
	OrdersByChannel    Series         `json:"orders_by_channel" yaml:"orders_by_channel"`
	OrdersByRegion     Series         `json:"orders_by_region" yaml:"orders_by_region"`
	AOVByDay           Series         `json:"aov_by_day" yaml:"aov_by_day"`
	AOVByChannel       Series         `json:"aov_by_channel" yaml:"aov_by_channel"`
	AOVByRegion        Series         `json:"aov_by_region" yaml:"aov_by_region"`
	OrdersPerDay       NullFloat      `json:"orders_per_day" yaml:"orders_per_day"`
	RegionChannelSales Matrix         `json:"region_channel_sales" yaml:"region_channel_sales"`
	DailyBreakdown     []BreakdownRow `json:"daily_breakdown" yaml:"daily_breakdown"`
}

// Bin is one equal-width bucket of the sales amount distribution.
type Bin struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
	Count int     `json:"count" yaml:"count"`
}

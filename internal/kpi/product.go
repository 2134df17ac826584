package kpi

import (
	"maps"
	"slices"

	"sales-kpi/internal/models"
)

type productAcc struct {
	revenue   float64
	cost      float64
	quantity  int
	customers map[int]struct{}
}

func Products(txs []models.Transaction) ProductKPIs {
	accs := make(map[int]*productAcc)
	for _, tx := range txs {
		acc, ok := accs[tx.ProductID]
		if !ok {
			acc = &productAcc{customers: make(map[int]struct{})}
			accs[tx.ProductID] = acc
		}
		acc.revenue += tx.SalesAmount
		acc.cost += tx.Cost
		acc.quantity += tx.Quantity
		acc.customers[tx.CustomerID] = struct{}{}
	}

	ids := slices.Sorted(maps.Keys(accs))
	stats := make([]ProductStat, 0, len(ids))
	for _, id := range ids {
		acc := accs[id]
		p := acc.revenue - acc.cost
		stats = append(stats, ProductStat{
			ProductID:    id,
			Revenue:      acc.revenue,
			Quantity:     acc.quantity,
			Customers:    len(acc.customers),
			Cost:         acc.cost,
			Profit:       p,
			ProfitMargin: percent(p, acc.revenue),
			AveragePrice: ratio(acc.revenue, float64(acc.quantity)),
		})
	}

	return ProductKPIs{
		Products:      stats,
		TopByRevenue:  rank(stats, func(s ProductStat) float64 { return s.Revenue }),
		TopByQuantity: rank(stats, func(s ProductStat) float64 { return float64(s.Quantity) }),
		ByProfit:      rank(stats, func(s ProductStat) float64 { return s.Profit }),
	}
}

package kpi

import "sales-kpi/internal/models"

func Revenue(txs []models.Transaction) RevenueKPIs {
	var total float64
	for _, tx := range txs {
		total += tx.SalesAmount
	}

	daily := toSeries(sumBy(txs, byDay, amount))
	return RevenueKPIs{
		TotalRevenue:      total,
		AverageOrderValue: ratio(total, float64(len(txs))),
		ByRegion:          toSeries(sumBy(txs, byRegion, amount)),
		ByChannel:         toSeries(sumBy(txs, byChannel, amount)),
		Daily:             daily,
		Monthly:           monthly(daily),
		Growth:            daily.Growth(),
	}
}

func Profitability(txs []models.Transaction) ProfitabilityKPIs {
	var revenue, cost, total float64
	for _, tx := range txs {
		revenue += tx.SalesAmount
		cost += tx.Cost
		total += tx.Profit()
	}

	daily := toSeries(sumBy(txs, byDay, profit))
	return ProfitabilityKPIs{
		TotalProfit:  total,
		TotalCost:    cost,
		ProfitMargin: percent(total, revenue),
		ByRegion:     toSeries(sumBy(txs, byRegion, profit)),
		ByChannel:    toSeries(sumBy(txs, byChannel, profit)),
		Daily:        daily,
		Monthly:      monthly(daily),
		Growth:       daily.Growth(),
	}
}

// percent is num/den*100, undefined when den is zero.
func percent(num, den float64) NullFloat {
	r := ratio(num, den)
	if r.Valid {
		r.Float64 *= 100
	}
	return r
}

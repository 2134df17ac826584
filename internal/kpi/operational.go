package kpi

import (
	"cmp"
	"maps"
	"slices"

	"sales-kpi/internal/models"
)

func Operational(txs []models.Transaction) OperationalKPIs {
	ordersByDay := toSeries(countBy(txs, byDay))

	return OperationalKPIs{
		OrdersByDay:        ordersByDay,
		OrdersByChannel:    toSeries(countBy(txs, byChannel)),
		OrdersByRegion:     toSeries(countBy(txs, byRegion)),
		AOVByDay:           toSeries(meanBy(txs, byDay, amount)),
		AOVByChannel:       toSeries(meanBy(txs, byChannel, amount)),
		AOVByRegion:        toSeries(meanBy(txs, byRegion, amount)),
		OrdersPerDay:       ratio(float64(len(txs)), float64(len(ordersByDay))),
		RegionChannelSales: regionChannelSales(txs),
		DailyBreakdown:     dailyBreakdown(txs),
	}
}

func regionChannelSales(txs []models.Transaction) Matrix {
	type cell struct{ region, channel string }
	sums := make(map[cell]float64)
	regions := make(map[string]struct{})
	channels := make(map[string]struct{})
	for _, tx := range txs {
		sums[cell{tx.Region, tx.Channel}] += tx.SalesAmount
		regions[tx.Region] = struct{}{}
		channels[tx.Channel] = struct{}{}
	}

	m := Matrix{
		Rows:    slices.Sorted(maps.Keys(regions)),
		Columns: slices.Sorted(maps.Keys(channels)),
	}
	if m.Rows == nil {
		m.Rows = []string{}
	}
	if m.Columns == nil {
		m.Columns = []string{}
	}
	m.Values = make([][]float64, len(m.Rows))
	for i, region := range m.Rows {
		m.Values[i] = make([]float64, len(m.Columns))
		for j, channel := range m.Columns {
			m.Values[i][j] = sums[cell{region, channel}]
		}
	}
	return m
}

func dailyBreakdown(txs []models.Transaction) []BreakdownRow {
	type key struct{ date, region, channel string }
	rows := make(map[key]*BreakdownRow)
	for _, tx := range txs {
		k := key{byDay(tx), tx.Region, tx.Channel}
		row, ok := rows[k]
		if !ok {
			row = &BreakdownRow{Date: k.date, Region: k.region, Channel: k.channel}
			rows[k] = row
		}
		row.SalesAmount += tx.SalesAmount
		row.Cost += tx.Cost
		row.Quantity += tx.Quantity
	}

	out := make([]BreakdownRow, 0, len(rows))
	for _, row := range rows {
		row.Profit = row.SalesAmount - row.Cost
		row.ProfitMargin = percent(row.Profit, row.SalesAmount)
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b BreakdownRow) int {
		return cmp.Or(
			cmp.Compare(a.Date, b.Date),
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.Channel, b.Channel),
		)
	})
	return out
}

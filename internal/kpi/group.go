package kpi

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"sales-kpi/internal/models"
)

// sumBy adds value(tx) into the bucket named by key(tx). Buckets are filled
// in table order so repeated runs produce identical float sums.
func sumBy(txs []models.Transaction, key func(models.Transaction) string, value func(models.Transaction) float64) map[string]float64 {
	groups := make(map[string]float64)
	for _, tx := range txs {
		groups[key(tx)] += value(tx)
	}
	return groups
}

func countBy(txs []models.Transaction, key func(models.Transaction) string) map[string]float64 {
	return sumBy(txs, key, func(models.Transaction) float64 { return 1 })
}

func meanBy(txs []models.Transaction, key func(models.Transaction) string, value func(models.Transaction) float64) map[string]float64 {
	sums := sumBy(txs, key, value)
	counts := countBy(txs, key)
	for k := range sums {
		sums[k] /= counts[k]
	}
	return sums
}

func toSeries(groups map[string]float64) Series {
	keys := slices.Sorted(maps.Keys(groups))
	out := make(Series, 0, len(keys))
	for _, k := range keys {
		out = append(out, Point{Key: k, Value: groups[k]})
	}
	return out
}

// monthly resamples a daily series into calendar months labelled by their
// last day. Months between the first and last one are zero-filled.
func monthly(daily Series) Series {
	out := make(Series, 0)
	if len(daily) == 0 {
		return out
	}

	sums := make(map[string]float64)
	for _, p := range daily {
		sums[p.Key[:len(monthLayout)]] += p.Value
	}

	first, _ := time.Parse(dayLayout, daily[0].Key)
	last, _ := time.Parse(dayLayout, daily[len(daily)-1].Key)
	month := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)

	for !month.After(end) {
		periodEnd := month.AddDate(0, 1, -1)
		out = append(out, Point{
			Key:   periodEnd.Format(dayLayout),
			Value: sums[month.Format(monthLayout)],
		})
		month = month.AddDate(0, 1, 0)
	}
	return out
}

// rank returns a copy of items sorted descending by metric. The sort is
// stable, so ties keep the input (group key) order.
func rank[T any](items []T, metric func(T) float64) []T {
	out := slices.Clone(items)
	if out == nil {
		out = make([]T, 0)
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(metric(b), metric(a))
	})
	return out
}

func byRegion(tx models.Transaction) string  { return tx.Region }
func byChannel(tx models.Transaction) string { return tx.Channel }
func byDay(tx models.Transaction) string     { return tx.Day().Format(dayLayout) }

func amount(tx models.Transaction) float64 { return tx.SalesAmount }
func profit(tx models.Transaction) float64 { return tx.Profit() }

package kpi

import (
	"maps"
	"math"
	"slices"
	"time"

	"sales-kpi/internal/models"
)

var tiers = [...]string{"Low", "Medium", "High", "VIP"}

// Tiers returns the spend segments from lowest to highest.
func Tiers() []string { return slices.Clone(tiers[:]) }

type customerAcc struct {
	spent  float64
	orders int
	first  time.Time
	last   time.Time
}

func Customers(txs []models.Transaction, top int) CustomerKPIs {
	accs := make(map[int]*customerAcc)
	regions := make(map[string]map[int]struct{})
	for _, tx := range txs {
		at := tx.Date.UTC()
		acc, ok := accs[tx.CustomerID]
		if !ok {
			acc = &customerAcc{first: at, last: at}
			accs[tx.CustomerID] = acc
		}
		acc.spent += tx.SalesAmount
		acc.orders++
		if at.Before(acc.first) {
			acc.first = at
		}
		if at.After(acc.last) {
			acc.last = at
		}

		if regions[tx.Region] == nil {
			regions[tx.Region] = make(map[int]struct{})
		}
		regions[tx.Region][tx.CustomerID] = struct{}{}
	}

	ids := slices.Sorted(maps.Keys(accs))
	stats := make([]CustomerStat, 0, len(ids))
	var total float64
	for _, id := range ids {
		acc := accs[id]
		total += acc.spent
		stats = append(stats, CustomerStat{
			CustomerID:        id,
			TotalSpent:        acc.spent,
			Orders:            acc.orders,
			FirstPurchase:     acc.first,
			LastPurchase:      acc.last,
			AverageOrderValue: acc.spent / float64(acc.orders),
			LifetimeDays:      int(acc.last.Sub(acc.first) / (24 * time.Hour)),
		})
	}

	segments, degenerate := segment(stats)

	byRegion := make(map[string]float64, len(regions))
	for region, customers := range regions {
		byRegion[region] = float64(len(customers))
	}

	ranked := rank(stats, func(s CustomerStat) float64 { return s.TotalSpent })
	return CustomerKPIs{
		UniqueCustomers:        len(stats),
		AvgRevenuePerCustomer:  ratio(total, float64(len(stats))),
		Customers:              stats,
		TopCustomers:           Top(ranked, top),
		ByRegion:               toSeries(byRegion),
		Segments:               segments,
		SegmentationDegenerate: degenerate,
	}
}

// segment assigns each customer a tier by the quartiles of total spend and
// returns the per-tier summary. When the population has fewer than four
// distinct spend values some edges coincide, the tiers between them stay
// empty and the result is flagged degenerate.
func segment(stats []CustomerStat) ([]Segment, bool) {
	spend := make([]float64, len(stats))
	for i, s := range stats {
		spend[i] = s.TotalSpent
	}
	slices.Sort(spend)

	var edges [5]float64
	if len(spend) > 0 {
		for i := range edges {
			edges[i] = quantile(spend, float64(i)/4)
		}
	}

	degenerate := len(slices.Compact(slices.Clone(spend))) < len(tiers)
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			degenerate = true
		}
	}

	segments := make([]Segment, len(tiers))
	for i, name := range tiers {
		segments[i] = Segment{Tier: name, LowerBound: edges[i], UpperBound: edges[i+1]}
	}

	for i := range stats {
		t := tierOf(stats[i].TotalSpent, edges)
		stats[i].Tier = tiers[t]
		segments[t].Customers++
		segments[t].Revenue += stats[i].TotalSpent
	}
	return segments, degenerate
}

func tierOf(spend float64, edges [5]float64) int {
	tier := 0
	for i := 1; i < len(tiers); i++ {
		if spend > edges[i] {
			tier = i
		}
	}
	return tier
}

// quantile interpolates linearly between the order statistics of a sorted
// sample.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

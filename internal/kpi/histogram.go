package kpi

import "sales-kpi/internal/models"

const DefaultBins = 30

// Histogram buckets sales amounts into equal-width bins spanning the
// observed range. The last bin is closed on the right.
func Histogram(txs []models.Transaction, bins int) []Bin {
	if bins <= 0 {
		bins = DefaultBins
	}
	out := make([]Bin, 0, bins)
	if len(txs) == 0 {
		return out
	}

	lo, hi := txs[0].SalesAmount, txs[0].SalesAmount
	for _, tx := range txs[1:] {
		lo = min(lo, tx.SalesAmount)
		hi = max(hi, tx.SalesAmount)
	}
	if lo == hi {
		return append(out, Bin{Lower: lo, Upper: hi, Count: len(txs)})
	}

	width := (hi - lo) / float64(bins)
	for i := range bins {
		out = append(out, Bin{
			Lower: lo + float64(i)*width,
			Upper: lo + float64(i+1)*width,
		})
	}
	out[bins-1].Upper = hi

	for _, tx := range txs {
		i := int((tx.SalesAmount - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

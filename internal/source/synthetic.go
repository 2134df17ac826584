package source

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"sales-kpi/internal/config"
	"sales-kpi/internal/models"
)

var (
	Regions  = []string{"North", "South", "East", "West"}
	Channels = []string{"Online", "Store", "Partner"}
)

const (
	maxProductID  = 10
	maxCustomerID = 100
	minAmount     = 10.0
	maxAmount     = 500.0
	maxQuantity   = 9
	minCostRatio  = 0.6
	maxCostRatio  = 0.8
)

// Synthetic generates a reproducible sales table. The table is a function of
// the seed and the anchor day only.
type Synthetic struct {
	rows   int
	seed   int64
	days   int
	anchor func() time.Time
}

func NewSynthetic(cfg config.SyntheticConfig) *Synthetic {
	return &Synthetic{
		rows:   cfg.Rows,
		seed:   cfg.Seed,
		days:   cfg.Days,
		anchor: time.Now,
	}
}

func (s *Synthetic) Name() string { return config.SourceSynthetic }

func (s *Synthetic) Fetch(ctx context.Context) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Generate(s.rows, s.seed, s.days, s.anchor()), nil
}

// Generate returns rows transactions dated within the days before anchor.
// Amounts are uniform in [10, 500) and cost is 60-80% of the amount.
func Generate(rows int, seed int64, days int, anchor time.Time) []models.Transaction {
	f := gofakeit.New(uint64(seed))
	end := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -days)
	days = max(days, 1)

	txs := make([]models.Transaction, rows)
	for i := range txs {
		amount := f.Float64Range(minAmount, maxAmount)
		txs[i] = models.Transaction{
			Date:        start.AddDate(0, 0, f.IntRange(0, days-1)),
			ProductID:   f.IntRange(1, maxProductID),
			CustomerID:  f.IntRange(1, maxCustomerID),
			SalesAmount: amount,
			Quantity:    f.IntRange(1, maxQuantity),
			Region:      Regions[f.IntRange(0, len(Regions)-1)],
			Channel:     Channels[f.IntRange(0, len(Channels)-1)],
		}
		txs[i].Cost = amount * f.Float64Range(minCostRatio, maxCostRatio)
	}
	return txs
}

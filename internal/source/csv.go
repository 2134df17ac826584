package source

import (
	"context"
	"fmt"
	"os"

	"sales-kpi/internal/config"
	"sales-kpi/internal/dataset"
	"sales-kpi/internal/models"
)

// CSV reads the table from a local file on every fetch.
type CSV struct {
	path string
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Name() string { return config.SourceCSV }

func (c *CSV) Fetch(ctx context.Context) ([]models.Transaction, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	txs, err := dataset.DecodeCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	return txs, nil
}

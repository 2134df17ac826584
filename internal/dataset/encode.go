package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"sales-kpi/internal/models"
)

// Encode writes the contract header followed by one record per transaction.
// Money is written with two decimals.
func Encode(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	record := make([]string, len(Columns))
	for _, tx := range txs {
		record[0] = tx.Date.UTC().Format("2006-01-02")
		record[1] = strconv.Itoa(tx.ProductID)
		record[2] = strconv.Itoa(tx.CustomerID)
		record[3] = decimal.NewFromFloat(tx.SalesAmount).StringFixed(2)
		record[4] = strconv.Itoa(tx.Quantity)
		record[5] = tx.Region
		record[6] = tx.Channel
		record[7] = decimal.NewFromFloat(tx.Cost).StringFixed(2)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

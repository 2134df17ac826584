// Package dataset validates raw tabular sales data against the column
// contract and converts it into typed transactions.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-kpi/internal/models"
)

const (
	ColDate        = "date"
	ColProductID   = "product_id"
	ColCustomerID  = "customer_id"
	ColSalesAmount = "sales_amount"
	ColQuantity    = "quantity"
	ColRegion      = "region"
	ColChannel     = "channel"
	ColCost        = "cost"

	batchSize  = 5000
	maxWorkers = 8
)

// Columns is the column contract in canonical order.
var Columns = []string{
	ColDate, ColProductID, ColCustomerID, ColSalesAmount,
	ColQuantity, ColRegion, ColChannel, ColCost,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

var errOutOfRange = errors.New("out of range")

type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := seen[name]; !dup {
			seen[name] = i
		}
	}

	idx := make(columnIndex, len(Columns))
	var missing []string
	for _, col := range Columns {
		i, ok := seen[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}
	return idx, nil
}

// Decode validates rows against the header and returns the typed table in
// row order. Fully blank rows are skipped; anything else that does not match
// the column contract fails with a *CellError naming the first bad cell.
func Decode(ctx context.Context, header []string, rows [][]string) ([]models.Transaction, error) {
	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		line  int
		cells []string
	}
	data := make([]numbered, 0, len(rows))
	for i, r := range rows {
		if isBlank(r) {
			continue
		}
		data = append(data, numbered{line: i + 1, cells: r})
	}

	out := make([]models.Transaction, len(data))
	batches := (len(data) + batchSize - 1) / batchSize
	batchErrs := make([]error, batches)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for b := range batches {
		start := b * batchSize
		end := min(start+batchSize, len(data))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				tx, err := decodeRow(idx, data[i].line, data[i].cells)
				if err != nil {
					batchErrs[b] = err
					return nil
				}
				out[i] = tx
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// report the earliest bad row regardless of which batch finished first
	for _, err := range batchErrs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeCSV reads a CSV stream whose first record is the header.
func DecodeCSV(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	header, rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, header, rows)
}

// ReadCSV splits a CSV stream into its header and data records. An empty
// stream has no header and fails on every required column.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func decodeRow(idx columnIndex, line int, cells []string) (models.Transaction, error) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	fail := func(col, reason string) error {
		return &CellError{Row: line, Column: col, Value: cell(col), Reason: reason}
	}

	var tx models.Transaction
	var err error

	if tx.Date, err = parseDate(cell(ColDate)); err != nil {
		return tx, fail(ColDate, "not a date")
	}
	if tx.ProductID, err = strconv.Atoi(cell(ColProductID)); err != nil {
		return tx, fail(ColProductID, "not an integer")
	}
	if tx.CustomerID, err = strconv.Atoi(cell(ColCustomerID)); err != nil {
		return tx, fail(ColCustomerID, "not an integer")
	}
	if tx.SalesAmount, err = parseMoney(cell(ColSalesAmount)); err != nil {
		return tx, fail(ColSalesAmount, moneyReason(err))
	}
	if tx.Quantity, err = strconv.Atoi(cell(ColQuantity)); err != nil {
		return tx, fail(ColQuantity, "not an integer")
	}
	if tx.Region = cell(ColRegion); tx.Region == "" {
		return tx, fail(ColRegion, "empty")
	}
	if tx.Channel = cell(ColChannel); tx.Channel == "" {
		return tx, fail(ColChannel, "empty")
	}
	if tx.Cost, err = parseMoney(cell(ColCost)); err != nil {
		return tx, fail(ColCost, moneyReason(err))
	}
	return tx, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseMoney(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errOutOfRange
	}
	return f, nil
}

func moneyReason(err error) string {
	if errors.Is(err, errOutOfRange) {
		return errOutOfRange.Error()
	}
	return "not a number"
}

// Validate applies the cell rules to a transaction that was read from a typed
// source rather than decoded from text. row is 1-based.
func Validate(row int, tx models.Transaction) error {
	fail := func(col, value, reason string) error {
		return &CellError{Row: row, Column: col, Value: value, Reason: reason}
	}
	for _, m := range []struct {
		col string
		v   float64
	}{{ColSalesAmount, tx.SalesAmount}, {ColCost, tx.Cost}} {
		if math.IsInf(m.v, 0) || math.IsNaN(m.v) {
			return fail(m.col, strconv.FormatFloat(m.v, 'g', -1, 64), errOutOfRange.Error())
		}
	}
	if strings.TrimSpace(tx.Region) == "" {
		return fail(ColRegion, tx.Region, "empty")
	}
	if strings.TrimSpace(tx.Channel) == "" {
		return fail(ColChannel, tx.Channel, "empty")
	}
	return nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"sales-kpi/internal/models"
)

var header = []string{"date", "product_id", "customer_id", "sales_amount", "quantity", "region", "channel", "cost"}

func TestDecode(t *testing.T) {
	rows := [][]string{
		{"2024-01-15", "3", "42", "$1,250.50", "2", "North", "Online", "900"},
		{"2024-01-16 10:30:00", "4", "7", "99.99", "1", "South", "Store", "60.5"},
		{"01/17/2024", "5", "8", "10", "3", " East ", "Partner", "7"},
	}

	txs, err := Decode(context.Background(), header, rows)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("Decode() returned %d rows, want 3", len(txs))
	}

	first := txs[0]
	if first.SalesAmount != 1250.5 {
		t.Errorf("sales_amount = %v, want 1250.5", first.SalesAmount)
	}
	if first.ProductID != 3 || first.CustomerID != 42 || first.Quantity != 2 {
		t.Errorf("first row = %+v", first)
	}
	if !first.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", first.Date)
	}
	if txs[1].Date.Hour() != 10 {
		t.Errorf("timestamp hour = %d, want 10", txs[1].Date.Hour())
	}
	if txs[2].Region != "East" {
		t.Errorf("region = %q, want trimmed East", txs[2].Region)
	}
	if txs[2].Date.Day() != 17 {
		t.Errorf("US date day = %d, want 17", txs[2].Date.Day())
	}
}

func TestDecode_HeaderNormalisation(t *testing.T) {
	h := []string{"\ufeffDate", " COST ", "Channel", "Region", "Quantity", "Sales_Amount", "Customer_ID", "Product_ID", "notes"}
	rows := [][]string{{"2024-02-01", "5", "Online", "West", "1", "20", "9", "1", "ignored"}}

	txs, err := Decode(context.Background(), h, rows)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if txs[0].Cost != 5 || txs[0].SalesAmount != 20 || txs[0].Region != "West" {
		t.Errorf("decoded %+v", txs[0])
	}
}

func TestDecode_MissingColumns(t *testing.T) {
	_, err := Decode(context.Background(), []string{"date", "product_id", "customer_id", "sales_amount", "quantity", "channel"}, nil)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("error = %v, want ErrMissingColumn", err)
	}

	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("error type = %T, want *MissingColumnError", err)
	}
	if len(mce.Columns) != 2 || mce.Columns[0] != "region" || mce.Columns[1] != "cost" {
		t.Errorf("missing = %v, want [region cost]", mce.Columns)
	}
	if !strings.Contains(err.Error(), `"region"`) {
		t.Errorf("message %q should name the column", err.Error())
	}
}

func TestDecode_InvalidCells(t *testing.T) {
	valid := []string{"2024-01-15", "3", "42", "10", "2", "North", "Online", "5"}

	tests := []struct {
		name   string
		column int
		value  string
	}{
		{"bad date", 0, "yesterday"},
		{"bad product", 1, "P-1"},
		{"bad customer", 2, "1.5"},
		{"bad amount", 3, "ten"},
		{"empty amount", 3, ""},
		{"bad quantity", 4, "two"},
		{"empty region", 5, "  "},
		{"empty channel", 6, ""},
		{"bad cost", 7, "n/a"},
		{"overflowing amount", 3, "1e400"},
		{"overflowing cost", 7, "-1e400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := append([]string(nil), valid...)
			bad[tt.column] = tt.value

			_, err := Decode(context.Background(), header, [][]string{valid, bad})
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("error = %v, want ErrInvalidValue", err)
			}
			var ce *CellError
			if !errors.As(err, &ce) {
				t.Fatalf("error type = %T, want *CellError", err)
			}
			if ce.Row != 2 {
				t.Errorf("row = %d, want 2", ce.Row)
			}
			if ce.Column != header[tt.column] {
				t.Errorf("column = %q, want %q", ce.Column, header[tt.column])
			}
		})
	}
}

func TestDecode_OutOfRange(t *testing.T) {
	row := []string{"2024-01-15", "3", "42", "1e400", "2", "North", "Online", "5"}

	_, err := Decode(context.Background(), header, [][]string{row})
	var ce *CellError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CellError", err)
	}
	if ce.Column != ColSalesAmount || ce.Reason != "out of range" {
		t.Errorf("cell error = %+v", ce)
	}
}

func TestValidate(t *testing.T) {
	valid := models.Transaction{Region: "North", Channel: "Online", SalesAmount: 10, Cost: 5}

	tests := []struct {
		name   string
		mutate func(*models.Transaction)
		column string
	}{
		{"valid", func(*models.Transaction) {}, ""},
		{"empty region", func(tx *models.Transaction) { tx.Region = " " }, ColRegion},
		{"empty channel", func(tx *models.Transaction) { tx.Channel = "" }, ColChannel},
		{"infinite amount", func(tx *models.Transaction) { tx.SalesAmount = math.Inf(1) }, ColSalesAmount},
		{"nan cost", func(tx *models.Transaction) { tx.Cost = math.NaN() }, ColCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)

			err := Validate(7, tx)
			if tt.column == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var ce *CellError
			if !errors.As(err, &ce) || !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("error = %v, want *CellError", err)
			}
			if ce.Row != 7 || ce.Column != tt.column {
				t.Errorf("cell error = %+v, want row 7 column %s", ce, tt.column)
			}
		})
	}
}

func TestDecode_ShortRow(t *testing.T) {
	_, err := Decode(context.Background(), header, [][]string{{"2024-01-15", "3", "42", "10", "2", "North"}})
	var ce *CellError
	if !errors.As(err, &ce) || ce.Column != "channel" {
		t.Errorf("error = %v, want channel cell error", err)
	}
}

func TestDecode_HeaderOnly(t *testing.T) {
	txs, err := Decode(context.Background(), header, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("Decode() returned %d rows, want 0", len(txs))
	}
}

func TestDecode_EarliestErrorAcrossBatches(t *testing.T) {
	rows := make([][]string, batchSize*3)
	for i := range rows {
		rows[i] = []string{"2024-01-15", "1", fmt.Sprint(i), "10", "1", "North", "Online", "5"}
	}
	rows[batchSize*2+10][3] = "bad"
	rows[batchSize+5][4] = "bad"

	_, err := Decode(context.Background(), header, rows)
	var ce *CellError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CellError", err)
	}
	if ce.Row != batchSize+6 {
		t.Errorf("row = %d, want %d", ce.Row, batchSize+6)
	}
}

func TestDecode_PreservesOrder(t *testing.T) {
	n := batchSize*2 + 17
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"2024-01-15", "1", fmt.Sprint(i), "10", "1", "North", "Online", "5"}
	}

	txs, err := Decode(context.Background(), header, rows)
	if err != nil {
		t.Fatal(err)
	}
	for i, tx := range txs {
		if tx.CustomerID != i {
			t.Fatalf("row %d has customer %d", i, tx.CustomerID)
		}
	}
}

func TestDecode_SkipsBlankRows(t *testing.T) {
	rows := [][]string{
		{"2024-01-15", "1", "1", "10", "1", "North", "Online", "5"},
		{"", "", ""},
		{},
		{"2024-01-16", "1", "2", "10", "1", "North", "Online", "5"},
	}
	txs, err := Decode(context.Background(), header, rows)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Errorf("Decode() returned %d rows, want 2", len(txs))
	}
}

func TestDecode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decode(ctx, header, [][]string{{"2024-01-15", "1", "1", "10", "1", "North", "Online", "5"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEncodeDecodeCSV(t *testing.T) {
	in := []models.Transaction{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ProductID: 2, CustomerID: 9, SalesAmount: 120.5, Quantity: 3, Region: "North", Channel: "Online", Cost: 80.25},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), ProductID: 4, CustomerID: 1, SalesAmount: 10, Quantity: 1, Region: "West", Channel: "Partner", Cost: 7},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), strings.Join(Columns, ",")+"\n") {
		t.Errorf("missing contract header: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "2024-03-01,2,9,120.50,3,North,Online,80.25") {
		t.Errorf("unexpected record layout: %q", buf.String())
	}

	out, err := DecodeCSV(context.Background(), &buf)
	if err != nil {
		t.Fatalf("DecodeCSV() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d rows, want %d", len(out), len(in))
	}
	for i := range in {
		if !out[i].Date.Equal(in[i].Date) {
			t.Errorf("row %d date = %v, want %v", i, out[i].Date, in[i].Date)
		}
		out[i].Date = in[i].Date
		if out[i] != in[i] {
			t.Errorf("row %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestDecodeCSV_Empty(t *testing.T) {
	_, err := DecodeCSV(context.Background(), strings.NewReader(""))
	var mce *MissingColumnError
	if !errors.As(err, &mce) || len(mce.Columns) != len(Columns) {
		t.Errorf("error = %v, want all columns missing", err)
	}
}

func BenchmarkDecode(b *testing.B) {
	rows := make([][]string, 20000)
	for i := range rows {
		rows[i] = []string{"2024-01-15", "1", fmt.Sprint(i % 100), "$1,010.25", "1", "North", "Online", "605.10"}
	}
	for b.Loop() {
		if _, err := Decode(context.Background(), header, rows); err != nil {
			b.Fatal(err)
		}
	}
}

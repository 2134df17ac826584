package kpi

import (
	"testing"

	"sales-kpi/internal/models"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name     string
		regions  []string
		channels []string
		from, to string
		wantErr  bool
		regionsN int
	}{
		{name: "empty"},
		{name: "repeated", regions: []string{"North", "South"}, regionsN: 2},
		{name: "comma list", regions: []string{"North, South,,East"}, regionsN: 3},
		{name: "date range", from: "2024-01-01", to: "2024-01-31"},
		{name: "same day", from: "2024-01-01", to: "2024-01-01"},
		{name: "bad date", from: "01/02/2024", wantErr: true},
		{name: "inverted range", from: "2024-02-01", to: "2024-01-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.regions, tt.channels, tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(f.Regions) != tt.regionsN {
				t.Errorf("regions = %v, want %d entries", f.Regions, tt.regionsN)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	txs := []models.Transaction{
		tx("2024-01-01", 1, 1, "North", "Online", 10, 5, 1),
		tx("2024-01-15", 1, 2, "South", "Store", 20, 5, 1),
		tx("2024-01-31", 1, 3, "North", "Store", 30, 5, 1),
		tx("2024-02-01", 1, 4, "East", "Partner", 40, 5, 1),
	}

	mustFilter := func(regions, channels []string, from, to string) Filter {
		f, err := ParseFilter(regions, channels, from, to)
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"all", Filter{}, []int{1, 2, 3, 4}},
		{"region", mustFilter([]string{"North"}, nil, "", ""), []int{1, 3}},
		{"channel", mustFilter(nil, []string{"Store,Partner"}, "", ""), []int{2, 3, 4}},
		{"inclusive range", mustFilter(nil, nil, "2024-01-01", "2024-01-31"), []int{1, 2, 3}},
		{"combined", mustFilter([]string{"North"}, []string{"Store"}, "2024-01-02", ""), []int{3}},
		{"no match", mustFilter([]string{"West"}, nil, "", ""), []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(txs)
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() returned %d rows, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].CustomerID != id {
					t.Errorf("row %d customer = %d, want %d", i, got[i].CustomerID, id)
				}
			}
		})
	}

	if len(txs) != 4 {
		t.Error("Apply modified its input")
	}
}

func TestHistogram(t *testing.T) {
	txs := randomTable(1000, 11)
	bins := Histogram(txs, 0)

	if len(bins) != DefaultBins {
		t.Fatalf("bins = %d, want %d", len(bins), DefaultBins)
	}
	var total int
	for i, b := range bins {
		total += b.Count
		if b.Upper <= b.Lower {
			t.Errorf("bin %d has empty range [%v, %v]", i, b.Lower, b.Upper)
		}
	}
	if total != len(txs) {
		t.Errorf("histogram counts %d rows, want %d", total, len(txs))
	}
}

func TestHistogram_EdgeCases(t *testing.T) {
	if got := Histogram(nil, 10); len(got) != 0 || got == nil {
		t.Errorf("Histogram(empty) = %v, want empty non-nil", got)
	}

	same := []models.Transaction{
		tx("2024-01-01", 1, 1, "A", "Online", 50, 5, 1),
		tx("2024-01-02", 1, 2, "A", "Online", 50, 5, 1),
	}
	got := Histogram(same, 10)
	if len(got) != 1 || got[0].Count != 2 {
		t.Errorf("Histogram(constant) = %v, want one bin of 2", got)
	}

	ends := []models.Transaction{
		tx("2024-01-01", 1, 1, "A", "Online", 0, 0, 1),
		tx("2024-01-02", 1, 2, "A", "Online", 100, 5, 1),
	}
	got = Histogram(ends, 4)
	if got[0].Count != 1 || got[3].Count != 1 {
		t.Errorf("Histogram(ends) = %v, want min in first bin and max in last", got)
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sales-kpi/internal/dataset"
)

// run executes kpidash with args against the built-in synthetic source.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SOURCE_KIND", "synthetic")
	t.Setenv("CACHE_STORE", "none")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "kpidash ") {
		t.Errorf("output = %q", out)
	}
}

func TestReportCmd_JSON(t *testing.T) {
	out, err := run(t, "report", "--format", "json", "--region", "North", "--top", "3")
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	var doc struct {
		Source string `json:"source"`
		Rows   int    `json:"rows"`
		Filter string `json:"filter"`
		Report struct {
			Revenue struct {
				TotalRevenue float64 `json:"total_revenue"`
				ByRegion     []struct {
					Key string `json:"key"`
				} `json:"revenue_by_region"`
			} `json:"revenue"`
			Customers struct {
				TopCustomers []json.RawMessage `json:"top_customers"`
			} `json:"customers"`
		} `json:"report"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if doc.Source != "synthetic" || doc.Filter != "region=North" {
		t.Errorf("source = %q, filter = %q", doc.Source, doc.Filter)
	}
	if doc.Rows == 0 || doc.Rows >= 1000 {
		t.Errorf("rows = %d, want a strict subset of 1000", doc.Rows)
	}
	if doc.Report.Revenue.TotalRevenue <= 0 {
		t.Errorf("total_revenue = %v", doc.Report.Revenue.TotalRevenue)
	}
	for _, p := range doc.Report.Revenue.ByRegion {
		if p.Key != "North" {
			t.Errorf("unexpected region %q in filtered report", p.Key)
		}
	}
	if n := len(doc.Report.Customers.TopCustomers); n != 3 {
		t.Errorf("top customers = %d, want 3", n)
	}
}

func TestReportCmd_Text(t *testing.T) {
	out, err := run(t, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"synthetic", "Total Revenue", "$"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestReportCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"report", "--format", "xml"}, "unknown report format"},
		{"bad date", []string{"report", "--from", "last-week"}, "invalid from date"},
		{"unknown flag", []string{"report", "--bogus"}, "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestGenerateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	if _, err := run(t, "generate", "--rows", "25", "--seed", "7", "--days", "30", "--out", path); err != nil {
		t.Fatalf("generate: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	txs, err := dataset.DecodeCSV(t.Context(), f)
	if err != nil {
		t.Fatalf("generated file does not decode: %v", err)
	}
	if len(txs) != 25 {
		t.Errorf("rows = %d, want 25", len(txs))
	}
}

func TestGenerateCmd_Stdout(t *testing.T) {
	out, err := run(t, "generate", "--rows", "3")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Errorf("lines = %d, want header plus 3 rows:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "date,") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestGenerateCmd_InvalidRows(t *testing.T) {
	if _, err := run(t, "generate", "--rows", "0"); err == nil {
		t.Error("expected an error for zero rows")
	}
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpidash.yaml")

	out, err := run(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "source:") {
		t.Errorf("config file = %s", data)
	}

	if _, err := run(t, "config", "init", "--path", path); err == nil {
		t.Error("expected an error when the file exists")
	}
	if _, err := run(t, "config", "init", "--path", path, "--force"); err != nil {
		t.Errorf("--force: %v", err)
	}

	if _, err := run(t, "--config", path, "report", "--format", "yaml"); err != nil {
		t.Errorf("report with written config: %v", err)
	}
}

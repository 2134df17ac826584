// Package report prints a KPI report for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"sales-kpi/internal/format"
	"sales-kpi/internal/kpi"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
	}
}

// Document is a report together with where its data came from.
type Document struct {
	Source    string     `json:"source" yaml:"source"`
	FellBack  bool       `json:"fell_back" yaml:"fell_back"`
	FetchedAt time.Time  `json:"fetched_at" yaml:"fetched_at"`
	Rows      int        `json:"rows" yaml:"rows"`
	Filter    string     `json:"filter,omitempty" yaml:"filter,omitempty"`
	Report    kpi.Report `json:"report" yaml:"report"`
}

func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, doc)
	}
}

func writeText(w io.Writer, doc Document) error {
	r := doc.Report
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	source := doc.Source
	if doc.FellBack {
		source += " (fallback)"
	}
	fmt.Fprintf(tw, "Source:\t%s\n", source)
	fmt.Fprintf(tw, "Rows:\t%d\n", doc.Rows)
	if doc.Filter != "" {
		fmt.Fprintf(tw, "Filter:\t%s\n", doc.Filter)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Total Revenue:\t%s\n", format.Money(r.Revenue.TotalRevenue))
	fmt.Fprintf(tw, "Average Order Value:\t%s\n", format.NullMoney(r.Revenue.AverageOrderValue))
	fmt.Fprintf(tw, "Revenue Growth:\t%s\n", format.NullPercent(r.Revenue.Growth))
	fmt.Fprintf(tw, "Total Profit:\t%s\n", format.Money(r.Profitability.TotalProfit))
	fmt.Fprintf(tw, "Total Cost:\t%s\n", format.Money(r.Profitability.TotalCost))
	fmt.Fprintf(tw, "Profit Margin:\t%s\n", format.NullPercent(r.Profitability.ProfitMargin))
	fmt.Fprintf(tw, "Unique Customers:\t%d\n", r.Customers.UniqueCustomers)
	fmt.Fprintf(tw, "Revenue per Customer:\t%s\n", format.NullMoney(r.Customers.AvgRevenuePerCustomer))
	fmt.Fprintf(tw, "Orders per Day:\t%s\n", format.NullNumber(r.Operational.OrdersPerDay))

	series(tw, "Revenue by Region", r.Revenue.ByRegion, format.Money)
	series(tw, "Revenue by Channel", r.Revenue.ByChannel, format.Money)
	series(tw, "Monthly Revenue", r.Revenue.Monthly, format.Money)

	fmt.Fprintln(tw, "\nTop Products by Revenue:")
	fmt.Fprintln(tw, "  product\trevenue\tquantity\tmargin")
	for _, p := range kpi.Top(r.Products.TopByRevenue, 5) {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%s\n", p.ProductID, format.Money(p.Revenue), p.Quantity, format.NullPercent(p.ProfitMargin))
	}

	fmt.Fprintln(tw, "\nTop Customers:")
	fmt.Fprintln(tw, "  customer\tspent\torders\ttier")
	for _, c := range r.Customers.TopCustomers {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%s\n", c.CustomerID, format.Money(c.TotalSpent), c.Orders, c.Tier)
	}

	title := "Customer Segments:"
	if r.Customers.SegmentationDegenerate {
		title = "Customer Segments (degenerate population):"
	}
	fmt.Fprintln(tw, "\n"+title)
	for _, s := range r.Customers.Segments {
		fmt.Fprintf(tw, "  %s\t%s customers\t%s\n", s.Tier, strconv.Itoa(s.Customers), format.Money(s.Revenue))
	}

	return tw.Flush()
}

func series(w io.Writer, title string, s kpi.Series, render func(float64) string) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(s) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, p := range s {
		fmt.Fprintf(w, "  %s\t%s\n", p.Key, render(p.Value))
	}
}

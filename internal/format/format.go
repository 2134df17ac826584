// Package format renders KPI values for people: dashboards and terminal
// reports. Machine outputs use the raw floats.
package format

import (
	"strings"

	"github.com/shopspring/decimal"

	"sales-kpi/internal/kpi"
)

const na = "n/a"

// Money formats v as dollars with thousands separators, e.g. $12,345.68.
func Money(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	return sign + "$" + group(whole) + "." + frac
}

// Number formats v with two decimals and thousands separators.
func Number(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + group(whole) + "." + frac
}

// Percent formats v as 28.57%.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

func NullMoney(n kpi.NullFloat) string {
	if !n.Valid {
		return na
	}
	return Money(n.Float64)
}

func NullPercent(n kpi.NullFloat) string {
	if !n.Valid {
		return na
	}
	return Percent(n.Float64)
}

func NullNumber(n kpi.NullFloat) string {
	if !n.Valid {
		return na
	}
	return Number(n.Float64)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

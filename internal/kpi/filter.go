package kpi

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"sales-kpi/internal/models"
)

// Filter narrows a table to the selected regions, channels and an inclusive
// day range. Empty lists and zero dates select everything.
type Filter struct {
	Regions  []string
	Channels []string
	From     time.Time
	To       time.Time
}

// ParseFilter builds a Filter from raw request or flag values. List values
// may repeat or be comma separated; dates use 2006-01-02.
func ParseFilter(regions, channels []string, from, to string) (Filter, error) {
	f := Filter{
		Regions:  splitList(regions),
		Channels: splitList(channels),
	}

	var err error
	if from != "" {
		if f.From, err = time.Parse(dayLayout, strings.TrimSpace(from)); err != nil {
			return Filter{}, fmt.Errorf("invalid from date %q: expected YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(dayLayout, strings.TrimSpace(to)); err != nil {
			return Filter{}, fmt.Errorf("invalid to date %q: expected YYYY-MM-DD", to)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return Filter{}, fmt.Errorf("from date %s is after to date %s", from, to)
	}
	return f, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (f Filter) IsZero() bool {
	return len(f.Regions) == 0 && len(f.Channels) == 0 && f.From.IsZero() && f.To.IsZero()
}

func (f Filter) Match(tx models.Transaction) bool {
	if len(f.Regions) > 0 && !slices.Contains(f.Regions, tx.Region) {
		return false
	}
	if len(f.Channels) > 0 && !slices.Contains(f.Channels, tx.Channel) {
		return false
	}
	day := tx.Day()
	if !f.From.IsZero() && day.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && day.After(f.To) {
		return false
	}
	return true
}

// Apply returns the matching rows in table order. The input is not modified.
func (f Filter) Apply(txs []models.Transaction) []models.Transaction {
	if f.IsZero() {
		return txs
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (f Filter) String() string {
	if f.IsZero() {
		return "all"
	}
	var parts []string
	if len(f.Regions) > 0 {
		parts = append(parts, "region="+strings.Join(f.Regions, ","))
	}
	if len(f.Channels) > 0 {
		parts = append(parts, "channel="+strings.Join(f.Channels, ","))
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(dayLayout))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(dayLayout))
	}
	return strings.Join(parts, " ")
}

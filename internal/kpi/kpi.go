// Package kpi turns a validated transaction table into the sales KPI report.
// Every computation is a pure function of the table it is given.
package kpi

import "sales-kpi/internal/models"

const DefaultTopCustomers = 10

type options struct {
	topCustomers int
}

type Option func(*options)

// WithTopCustomers sets how many customers top_customers keeps.
func WithTopCustomers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topCustomers = n
		}
	}
}

// Compute builds the full report. It never fails: cell validation is the
// decoder's job, and undefined values are carried as NullFloat.
func Compute(txs []models.Transaction, opts ...Option) Report {
	o := options{topCustomers: DefaultTopCustomers}
	for _, opt := range opts {
		opt(&o)
	}

	return Report{
		Revenue:       Revenue(txs),
		Profitability: Profitability(txs),
		Products:      Products(txs),
		Customers:     Customers(txs, o.topCustomers),
		Operational:   Operational(txs),
	}
}

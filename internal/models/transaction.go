package models

import "time"

// Transaction is one sales event. Every transaction belongs to exactly one
// region, channel, product and customer.
type Transaction struct {
	Date        time.Time
	ProductID   int
	CustomerID  int
	Region      string
	Channel     string
	SalesAmount float64
	Cost        float64
	Quantity    int
}

// Profit is derived from amount and cost and never stored.
func (t Transaction) Profit() float64 {
	return t.SalesAmount - t.Cost
}

// Day returns the calendar day of the transaction in UTC.
func (t Transaction) Day() time.Time {
	y, m, d := t.Date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

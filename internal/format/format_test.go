package format

import (
	"testing"

	"sales-kpi/internal/kpi"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{350, "$350.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{999.999, "$1,000.00"},
		{-42.5, "-$42.50"},
		{-1500, "-$1,500.00"},
	}
	for _, tt := range tests {
		if got := Money(tt.in); got != tt.want {
			t.Errorf("Money(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumber(t *testing.T) {
	if got := Number(12345.678); got != "12,345.68" {
		t.Errorf("Number() = %q", got)
	}
	if got := Number(-3); got != "-3.00" {
		t.Errorf("Number() = %q", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(100.0 / 350.0 * 100); got != "28.57%" {
		t.Errorf("Percent() = %q, want 28.57%%", got)
	}
	if got := Percent(-12.5); got != "-12.50%" {
		t.Errorf("Percent() = %q", got)
	}
}

func TestNullValues(t *testing.T) {
	undefined := kpi.NullFloat{}
	if NullMoney(undefined) != "n/a" || NullPercent(undefined) != "n/a" || NullNumber(undefined) != "n/a" {
		t.Error("undefined values should render as n/a")
	}
	if got := NullMoney(kpi.Defined(116.6666)); got != "$116.67" {
		t.Errorf("NullMoney() = %q", got)
	}
	if got := NullPercent(kpi.Defined(5)); got != "5.00%" {
		t.Errorf("NullPercent() = %q", got)
	}
}

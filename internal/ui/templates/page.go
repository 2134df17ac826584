// Package templates holds the dashboard page. Panels are filled in by the
// /sse endpoints once the page loads.
package templates

//go:generate templ generate

const Title = "Sales Performance KPI Dashboard"

// Page carries the sidebar choices known when the page is rendered.
type Page struct {
	Regions  []string
	Channels []string
}

package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-kpi/internal/format"
	"sales-kpi/internal/kpi"
	"sales-kpi/internal/services"
)

const (
	maxTableRows = 50
	maxProducts  = 10
)

var fragmentFuncs = template.FuncMap{
	"money":       format.Money,
	"percent":     format.Percent,
	"nullMoney":   format.NullMoney,
	"nullPercent": format.NullPercent,
	"nullNumber":  format.NullNumber,
}

var summaryTemplate = template.Must(template.New("summary").Funcs(fragmentFuncs).Parse(`
<div id="summary-content" class="kpi-grid">
<div class="kpi-card"><span class="kpi-label">Total Revenue</span><span class="kpi-value">{{money .Revenue.TotalRevenue}}</span><span class="kpi-delta">{{nullPercent .Revenue.Growth}}</span></div>
<div class="kpi-card"><span class="kpi-label">Average Order Value</span><span class="kpi-value">{{nullMoney .Revenue.AverageOrderValue}}</span></div>
<div class="kpi-card"><span class="kpi-label">Total Profit</span><span class="kpi-value">{{money .Profitability.TotalProfit}}</span><span class="kpi-delta">{{nullPercent .Profitability.Growth}}</span></div>
<div class="kpi-card"><span class="kpi-label">Profit Margin</span><span class="kpi-value">{{nullPercent .Profitability.ProfitMargin}}</span></div>
<div class="kpi-card"><span class="kpi-label">Unique Customers</span><span class="kpi-value">{{.Customers.UniqueCustomers}}</span></div>
<div class="kpi-card"><span class="kpi-label">Revenue per Customer</span><span class="kpi-value">{{nullMoney .Customers.AvgRevenuePerCustomer}}</span></div>
<div class="kpi-card"><span class="kpi-label">Orders per Day</span><span class="kpi-value">{{nullNumber .Operational.OrdersPerDay}}</span></div>
</div>`))

var productsTemplate = template.Must(template.New("products").Funcs(fragmentFuncs).Parse(`
<div id="products-content">
<table class="modern-table">
<thead><tr><th>Product</th><th>Revenue</th><th>Quantity</th><th>Customers</th><th>Profit</th><th>Margin</th><th>Avg Price</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>#{{.ProductID}}</td>
<td><strong>{{money .Revenue}}</strong></td>
<td>{{.Quantity}}</td>
<td>{{.Customers}}</td>
<td>{{money .Profit}}</td>
<td>{{nullPercent .ProfitMargin}}</td>
<td>{{nullMoney .AveragePrice}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var segmentsTemplate = template.Must(template.New("segments").Funcs(fragmentFuncs).Parse(`
<div id="segments-content">
{{if .SegmentationDegenerate}}<p class="notice">Too few distinct spend values for quartile tiers; some tiers are empty.</p>{{end}}
<table class="modern-table">
<thead><tr><th>Tier</th><th>Customers</th><th>Revenue</th><th>Spend Range</th></tr></thead>
<tbody>
{{range .Segments}}<tr>
<td><span class="tier-badge tier-{{.Tier}}">{{.Tier}}</span></td>
<td>{{.Customers}}</td>
<td>{{money .Revenue}}</td>
<td>{{money .LowerBound}} to {{money .UpperBound}}</td>
</tr>{{end}}
</tbody>
</table>
<table class="modern-table">
<thead><tr><th>Customer</th><th>Total Spent</th><th>Orders</th><th>Avg Order</th><th>Lifetime (days)</th><th>Tier</th></tr></thead>
<tbody>
{{range .TopCustomers}}<tr>
<td>#{{.CustomerID}}</td>
<td><strong>{{money .TotalSpent}}</strong></td>
<td>{{.Orders}}</td>
<td>{{money .AverageOrderValue}}</td>
<td>{{.LifetimeDays}}</td>
<td>{{.Tier}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var breakdownTemplate = template.Must(template.New("breakdown").Funcs(fragmentFuncs).Parse(`
<div id="breakdown-content">
<table class="modern-table">
<thead><tr><th>Date</th><th>Region</th><th>Channel</th><th>Sales</th><th>Cost</th><th>Quantity</th><th>Profit</th><th>Margin</th></tr></thead>
<tbody>
{{range $i, $row := .Data}}{{if lt $i $.MaxRows}}<tr>
<td>{{.Date}}</td>
<td>{{.Region}}</td>
<td>{{.Channel}}</td>
<td>{{money .SalesAmount}}</td>
<td>{{money .Cost}}</td>
<td>{{.Quantity}}</td>
<td>{{money .Profit}}</td>
<td>{{nullPercent .ProfitMargin}}</td>
</tr>{{end}}{{end}}
</tbody>
</table>
</div>`))

var statusTemplate = template.Must(template.New("status").Parse(`
<div id="source-status" class="source-status{{if .FellBack}} fallback{{end}}">
Data: <strong>{{.Source}}</strong>{{if .FellBack}} (sample data, upstream unavailable){{end}} · {{.Rows}} rows · updated {{.FetchedAt.Format "2006-01-02 15:04 MST"}}
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type templateData struct {
	Data    any
	MaxRows int
}

// filterSignals are the sidebar controls bound with data-bind on the page.
type filterSignals struct {
	Region  string `json:"region"`
	Channel string `json:"channel"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// filter reads the sidebar signals sent by datastar, or plain query
// parameters when the request did not come from the page.
func filter(r *http.Request) (kpi.Filter, error) {
	if r.URL.Query().Has("datastar") {
		var s filterSignals
		if err := datastar.ReadSignals(r, &s); err != nil {
			return kpi.Filter{}, err
		}
		return kpi.ParseFilter([]string{s.Region}, []string{s.Channel}, s.From, s.To)
	}
	return parseFilter(r)
}

func render(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := t.Execute(&buf, data)
	return buf.String(), err
}

// view is the filtered report one stream renders from.
type view struct {
	filter kpi.Filter
	report kpi.Report
}

// begin opens the stream and resolves the view for r. Problems are shown in
// the page's message area instead of failing the stream.
func (h *SSEHandlers) begin(w http.ResponseWriter, r *http.Request) (*datastar.ServerSentEventGenerator, *view) {
	sse := datastar.NewSSE(w, r)

	if !h.analytics.Loaded() {
		sse.PatchElements(`<div id="message" class="notice">Sales data is still loading…</div>`)
		return sse, nil
	}
	f, err := filter(r)
	if err != nil {
		h.logger.Warn("invalid dashboard filter", "error", err)
		sse.PatchElements(`<div id="message" class="notice error">` + template.HTMLEscapeString(err.Error()) + `</div>`)
		return sse, nil
	}
	sse.PatchElements(`<div id="message"></div>`)
	return sse, &view{filter: f, report: h.analytics.Compute(f)}
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) bool {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return false
	}
	sse.PatchSignals(data)
	return true
}

func (h *SSEHandlers) patchTemplate(sse *datastar.ServerSentEventGenerator, t *template.Template, data any) bool {
	html, err := render(t, data)
	if err != nil {
		h.logger.Error("render fragment", "template", t.Name(), "error", err)
		return false
	}
	sse.PatchElements(html)
	return true
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

type panel func(*datastar.ServerSentEventGenerator, *view) bool

func (h *SSEHandlers) summary(sse *datastar.ServerSentEventGenerator, v *view) bool {
	return h.patchTemplate(sse, summaryTemplate, v.report) &&
		h.patchTemplate(sse, statusTemplate, h.analytics.Info())
}

func (h *SSEHandlers) products(sse *datastar.ServerSentEventGenerator, v *view) bool {
	p := v.report.Products
	return h.patchTemplate(sse, productsTemplate, kpi.Top(p.TopByRevenue, maxProducts)) &&
		h.patchSignals(sse, map[string]any{
			"productsData": map[string]any{
				"revenue":       p.TopByRevenue,
				"quantity":      p.TopByQuantity,
				"profitability": p.ByProfit,
			},
		})
}

func (h *SSEHandlers) trends(sse *datastar.ServerSentEventGenerator, v *view) bool {
	rep := v.report
	return h.patchSignals(sse, map[string]any{
		"trendsData": map[string]any{
			"dailyRevenue":     rep.Revenue.Daily,
			"monthlyRevenue":   rep.Revenue.Monthly,
			"dailyProfit":      rep.Profitability.Daily,
			"monthlyProfit":    rep.Profitability.Monthly,
			"revenueByRegion":  rep.Revenue.ByRegion,
			"revenueByChannel": rep.Revenue.ByChannel,
			"ordersByDay":      rep.Operational.OrdersByDay,
			"aovByChannel":     rep.Operational.AOVByChannel,
			"heatmap":          rep.Operational.RegionChannelSales,
			"distribution":     h.analytics.Distribution(v.filter, kpi.DefaultBins),
		},
	}) && h.patchTemplate(sse, breakdownTemplate, templateData{Data: rep.Operational.DailyBreakdown, MaxRows: maxTableRows})
}

func (h *SSEHandlers) segments(sse *datastar.ServerSentEventGenerator, v *view) bool {
	c := v.report.Customers
	return h.patchTemplate(sse, segmentsTemplate, c) &&
		h.patchSignals(sse, map[string]any{
			"segmentsData": map[string]any{
				"segments":          c.Segments,
				"customersByRegion": c.ByRegion,
			},
		})
}

func (h *SSEHandlers) serve(w http.ResponseWriter, r *http.Request, panels ...panel) {
	sse, v := h.begin(w, r)
	if v != nil {
		for _, p := range panels {
			if !p(sse, v) {
				break
			}
		}
	}
	flush(w)
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.summary)
}

func (h *SSEHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.products)
}

func (h *SSEHandlers) HandleTrends(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.trends)
}

func (h *SSEHandlers) HandleSegments(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.segments)
}

// HandleRefreshAll re-renders every panel from one filtered report.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.summary, h.products, h.trends, h.segments)
}

package source

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"sales-kpi/internal/config"
	"sales-kpi/internal/dataset"
	"sales-kpi/internal/models"
)

type valuesGetter interface {
	Values(ctx context.Context, spreadsheetID, readRange string) ([][]any, error)
}

type sheetsAPI struct {
	svc *sheets.Service
}

func (a sheetsAPI) Values(ctx context.Context, spreadsheetID, readRange string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Sheets reads a spreadsheet range whose first row is the header.
type Sheets struct {
	client        valuesGetter
	spreadsheetID string
	readRange     string
}

// NewSheets authenticates with a service account credentials file when one
// is configured, otherwise with an API key.
func NewSheets(ctx context.Context, cfg config.SheetsConfig) (*Sheets, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return newSheets(sheetsAPI{svc: svc}, cfg), nil
}

func newSheets(client valuesGetter, cfg config.SheetsConfig) *Sheets {
	return &Sheets{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.Range,
	}
}

func (s *Sheets) Name() string { return config.SourceSheets }

func (s *Sheets) Fetch(ctx context.Context) ([]models.Transaction, error) {
	values, err := s.client.Values(ctx, s.spreadsheetID, s.readRange)
	if err != nil {
		return nil, fmt.Errorf("read range %q: %w", s.readRange, err)
	}

	var header []string
	var rows [][]string
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}

	txs, err := dataset.Decode(ctx, header, rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", s.readRange, err)
	}
	return txs, nil
}

package spreadsheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/brkosebay/QR-Code-Manager/internal/config"
)

// GoogleSheetsFetcher reads a value range from a Google Sheet using a
// service-account key file.
type GoogleSheetsFetcher struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
}

func NewGoogleSheetsFetcher(ctx context.Context, cfg config.Sheet) (*GoogleSheetsFetcher, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.GoogleCredentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}
	return &GoogleSheetsFetcher{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.SpreadsheetRange,
	}, nil
}

func (f *GoogleSheetsFetcher) FetchRows(ctx context.Context) ([][]string, error) {
	resp, err := f.svc.Spreadsheets.Values.Get(f.spreadsheetID, f.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s of spreadsheet %s: %w", f.readRange, f.spreadsheetID, err)
	}
	return toStringRows(resp.Values), nil
}

// Package spreadsheet fetches survey-response rows from the configured
// external source. Both implementations return the raw row range; matching
// against respondent identifiers happens in the services layer.
package spreadsheet

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brkosebay/QR-Code-Manager/internal/config"
	"github.com/brkosebay/QR-Code-Manager/internal/services"
)

// New builds the row fetcher selected by SHEET_PROVIDER.
func New(ctx context.Context, cfg config.Sheet) (services.RowFetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "google":
		return NewGoogleSheetsFetcher(ctx, cfg)
	case "excel":
		return NewGraphExcelFetcher(ctx, cfg), nil
	default:
		return nil, fmt.Errorf("unknown sheet provider %q", cfg.Provider)
	}
}

// cellString renders an API cell value the way it appears in the sheet.
// Numeric cells come back as float64 from both APIs.
func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func toStringRows(values [][]any) [][]string {
	rows := make([][]string, 0, len(values))
	for _, raw := range values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, cellString(cell))
		}
		rows = append(rows, row)
	}
	return rows
}

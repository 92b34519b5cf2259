package spreadsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/brkosebay/QR-Code-Manager/internal/config"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// GraphExcelFetcher reads a worksheet range from an Excel workbook on
// OneDrive through the Microsoft Graph API, authenticating with the
// client-credential flow of an Azure AD app registration.
type GraphExcelFetcher struct {
	client    *http.Client
	itemPath  string
	worksheet string
	readRange string
}

func NewGraphExcelFetcher(ctx context.Context, cfg config.Sheet) *GraphExcelFetcher {
	cc := clientcredentials.Config{
		ClientID:     cfg.AzureClientID,
		ClientSecret: cfg.AzureClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.AzureTenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	// Addressing by owner UPN is preferred; drive ID is the fallback.
	itemPath := fmt.Sprintf("/drives/%s/items/%s", cfg.ExcelDriveID, cfg.ExcelFileItemID)
	if cfg.ExcelOwnerUPN != "" {
		itemPath = fmt.Sprintf("/users/%s/drive/items/%s", cfg.ExcelOwnerUPN, cfg.ExcelFileItemID)
	}
	return &GraphExcelFetcher{
		client:    cc.Client(ctx),
		itemPath:  itemPath,
		worksheet: cfg.ExcelWorksheet,
		readRange: cfg.ExcelRange,
	}
}

func (f *GraphExcelFetcher) FetchRows(ctx context.Context) ([][]string, error) {
	endpoint := fmt.Sprintf("%s%s/workbook/worksheets/%s/range(address='%s')",
		graphBaseURL, f.itemPath, url.PathEscape(f.worksheet), f.readRange)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call graph api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("graph authentication failed, check the Azure AD credentials: %s", body)
		case http.StatusForbidden:
			return nil, fmt.Errorf("graph access denied, the app needs Files.Read.All or Sites.Read.All: %s", body)
		case http.StatusNotFound:
			return nil, fmt.Errorf("workbook or worksheet not found, check EXCEL_FILE_ITEM_ID and EXCEL_WORKSHEET_NAME: %s", body)
		default:
			return nil, fmt.Errorf("graph api returned %s: %s", resp.Status, body)
		}
	}
	return decodeRangeValues(resp.Body)
}

func decodeRangeValues(r io.Reader) ([][]string, error) {
	var payload struct {
		Values [][]any `json:"values"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode workbook range: %w", err)
	}
	return toStringRows(payload.Values), nil
}

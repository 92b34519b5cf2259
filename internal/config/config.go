package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the process needs, parsed from the environment.
// A .env file in the working directory is loaded first when present.
type Config struct {
	Addr       string `env:"ADDR" envDefault:":3000"`
	PublicHost string `env:"HOSTNAME"` // host embedded in QR validation URLs; outbound IP when empty
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/respondents.db"`
	QRCodeDir  string `env:"QR_CODE_DIR" envDefault:"qr_codes"`
	JWTSecret  string `env:"JWT_SECRET"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	Sheet Sheet
	SMTP  SMTP

	CSVLocation string `env:"CSV_LOCATION"`
}

// Sheet selects and configures the external spreadsheet source.
type Sheet struct {
	Provider string `env:"SHEET_PROVIDER" envDefault:"google"` // google | excel

	// Google Sheets (service-account key file)
	GoogleCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	SpreadsheetID         string `env:"SPREADSHEET_ID"`
	SpreadsheetRange      string `env:"SPREADSHEET_RANGE"`

	// Excel workbook on OneDrive, read through the Microsoft Graph API
	AzureTenantID     string `env:"AZURE_TENANT_ID"`
	AzureClientID     string `env:"AZURE_CLIENT_ID"`
	AzureClientSecret string `env:"AZURE_CLIENT_SECRET"`
	ExcelFileItemID   string `env:"EXCEL_FILE_ITEM_ID"`
	ExcelWorksheet    string `env:"EXCEL_WORKSHEET_NAME" envDefault:"Sheet1"`
	ExcelRange        string `env:"EXCEL_RANGE"`
	ExcelOwnerUPN     string `env:"EXCEL_OWNER_UPN"`
	ExcelDriveID      string `env:"EXCEL_DRIVE_ID"`
}

// SMTP configures the optional QR delivery mailer.
type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"EMAIL_USERNAME"`
	Password string `env:"EMAIL_PASSWORD"`
}

func (s SMTP) Configured() bool { return s.Host != "" && s.Username != "" }

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings required by the selected spreadsheet provider.
func (s Sheet) Validate() error {
	switch s.Provider {
	case "google":
		if s.GoogleCredentialsFile == "" || s.SpreadsheetID == "" || s.SpreadsheetRange == "" {
			return errors.New("google provider requires GOOGLE_APPLICATION_CREDENTIALS, SPREADSHEET_ID and SPREADSHEET_RANGE")
		}
	case "excel":
		if s.AzureTenantID == "" || s.AzureClientID == "" || s.AzureClientSecret == "" {
			return errors.New("excel provider requires AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET")
		}
		if s.ExcelFileItemID == "" || s.ExcelRange == "" {
			return errors.New("excel provider requires EXCEL_FILE_ITEM_ID and EXCEL_RANGE")
		}
		if s.ExcelOwnerUPN == "" && s.ExcelDriveID == "" {
			return errors.New("excel provider requires EXCEL_OWNER_UPN or EXCEL_DRIVE_ID")
		}
	default:
		return fmt.Errorf("unknown sheet provider %q", s.Provider)
	}
	return nil
}

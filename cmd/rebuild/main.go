// Command rebuild wipes the respondent database and the QR code directory,
// then re-imports every respondent from the roster CSV and regenerates
// their QR codes. Existing tokens are NOT preserved.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/brkosebay/QR-Code-Manager/internal/config"
	"github.com/brkosebay/QR-Code-Manager/internal/db"
	"github.com/brkosebay/QR-Code-Manager/internal/qrcode"
	"github.com/brkosebay/QR-Code-Manager/internal/roster"
	"github.com/brkosebay/QR-Code-Manager/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	csvPath := flag.String("csv", cfg.CSVLocation, "path to the roster CSV (Email1;Email2)")
	baseURL := flag.String("base-url", "", "public base URL for validation links, e.g. http://10.0.0.5:3000")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("no roster CSV given: set CSV_LOCATION or pass -csv")
	}
	if *baseURL == "" {
		log.Fatal("pass -base-url so regenerated QR codes point at the running server")
	}

	store, err := db.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	qr, err := qrcode.NewGenerator(cfg.QRCodeDir, *baseURL)
	if err != nil {
		log.Fatalf("init qr generator: %v", err)
	}

	entries, err := roster.Load(*csvPath)
	if err != nil {
		log.Fatalf("load roster: %v", err)
	}

	if err := store.DeleteAllRespondents(); err != nil {
		log.Fatalf("clear database: %v", err)
	}
	if err := qr.Clear(); err != nil {
		log.Fatalf("clear qr code directory: %v", err)
	}
	log.Printf("database and qr directory cleared, importing %d roster rows", len(entries))

	issueSvc := services.NewIssueService(store, qr)
	added := 0
	for _, e := range entries {
		emails := e.Emails()
		res, err := issueSvc.Issue(context.Background(), emails)
		if err != nil {
			log.Printf("skip %s: %v", strings.Join(emails, ", "), err)
			continue
		}
		added++
		log.Printf("added respondent %s for: %s", res.Token, strings.Join(emails, ", "))
	}
	log.Printf("database rebuild complete, %d of %d rows imported", added, len(entries))
}

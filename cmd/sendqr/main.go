// Command sendqr emails each roster respondent their QR code directly over
// SMTP, as an alternative to the ReliefJet mail merge.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/brkosebay/QR-Code-Manager/internal/config"
	"github.com/brkosebay/QR-Code-Manager/internal/db"
	"github.com/brkosebay/QR-Code-Manager/internal/email"
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
	baseURL := flag.String("base-url", "", "public base URL used in validation links")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("no roster CSV given: set CSV_LOCATION or pass -csv")
	}
	if *baseURL == "" {
		log.Fatal("pass -base-url so mailed validation links match the issued QR codes")
	}
	if !cfg.SMTP.Configured() {
		log.Fatal("SMTP_HOST and EMAIL_USERNAME must be set to send mail")
	}

	store, err := db.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	qr, err := qrcode.NewGenerator(cfg.QRCodeDir, *baseURL)
	if err != nil {
		log.Fatalf("init qr generator: %v", err)
	}
	mailer := email.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)

	entries, err := roster.Load(*csvPath)
	if err != nil {
		log.Fatalf("load roster: %v", err)
	}

	sent, failed, skipped := 0, 0, 0
	for _, e := range entries {
		emails := e.Emails()
		identifiers := make([]string, 0, len(emails))
		for _, addr := range emails {
			identifiers = append(identifiers, services.HashEmail(addr))
		}
		r, err := store.FindRespondentByAnyIdentifier(identifiers)
		if err != nil {
			log.Fatalf("look up %s: %v", e.Email1, err)
		}
		if r == nil {
			skipped++
			log.Printf("not in database: %s", e.Email1)
			continue
		}
		qrPath := qr.PathFor(emails, r.Token)
		if _, err := os.Stat(qrPath); err != nil {
			skipped++
			log.Printf("missing qr code for %s (expected %s)", e.Email1, qrPath)
			continue
		}
		if err := mailer.SendQRCode(emails[0], qrPath, qr.ValidationURL(r.Token)); err != nil {
			failed++
			log.Printf("send to %s: %v", emails[0], err)
			continue
		}
		sent++
		log.Printf("sent qr code to %s", emails[0])
	}
	log.Printf("done: %d sent, %d failed, %d skipped", sent, failed, skipped)
}

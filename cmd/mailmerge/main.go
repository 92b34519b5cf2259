// Command mailmerge joins the roster CSV with the stored respondents and
// writes a semicolon CSV for the ReliefJet Outlook mail merge: one row per
// respondent with the QR code path, token and validation URL.
package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"

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
	outPath := flag.String("out", "reliefjet_mailmerge.csv", "output CSV path")
	baseURL := flag.String("base-url", "", "public base URL used in validation links")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("no roster CSV given: set CSV_LOCATION or pass -csv")
	}
	if *baseURL == "" {
		log.Fatal("pass -base-url so exported validation links match the issued QR codes")
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

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer out.Close()
	w := csv.NewWriter(out)
	w.Comma = ';'
	if err := w.Write([]string{"Email1", "Email2", "QRCodePath", "Token", "ValidationURL"}); err != nil {
		log.Fatalf("write header: %v", err)
	}

	matched, notMatched, noQRCode := 0, 0, 0
	for _, e := range entries {
		emails := e.Emails()
		identifiers := make([]string, 0, len(emails))
		for _, email := range emails {
			identifiers = append(identifiers, services.HashEmail(email))
		}
		r, err := store.FindRespondentByAnyIdentifier(identifiers)
		if err != nil {
			log.Fatalf("look up %s: %v", e.Email1, err)
		}
		if r == nil {
			notMatched++
			log.Printf("not in database: %s", e.Email1)
			continue
		}
		qrPath := qr.PathFor(emails, r.Token)
		if _, err := os.Stat(qrPath); err != nil {
			noQRCode++
			log.Printf("missing qr code for %s (expected %s)", e.Email1, qrPath)
			continue
		}
		row := []string{e.Email1, e.Email2, qrPath, r.Token, qr.ValidationURL(r.Token)}
		if err := w.Write(row); err != nil {
			log.Fatalf("write row: %v", err)
		}
		matched++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flush output: %v", err)
	}

	log.Printf("mail merge export complete: %s", *outPath)
	log.Printf("matched: %d, not in database: %d, missing qr code: %d", matched, notMatched, noQRCode)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/brkosebay/QR-Code-Manager/internal/api"
	"github.com/brkosebay/QR-Code-Manager/internal/config"
	dbstore "github.com/brkosebay/QR-Code-Manager/internal/db"
	"github.com/brkosebay/QR-Code-Manager/internal/middleware"
	"github.com/brkosebay/QR-Code-Manager/internal/qrcode"
	"github.com/brkosebay/QR-Code-Manager/internal/services"
	"github.com/brkosebay/QR-Code-Manager/internal/spreadsheet"
	"github.com/brkosebay/QR-Code-Manager/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := dbstore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	fetcher, err := spreadsheet.New(context.Background(), cfg.Sheet)
	if err != nil {
		log.Fatalf("configure spreadsheet source: %v", err)
	}

	host := cfg.PublicHost
	if host == "" {
		host = utils.ServerIPAddress()
	}
	if host == "" {
		host = "localhost"
	}
	qr, err := qrcode.NewGenerator(cfg.QRCodeDir, publicBaseURL(host, cfg.Addr))
	if err != nil {
		log.Fatalf("init qr generator: %v", err)
	}

	issueSvc := services.NewIssueService(store, qr)
	reconcileSvc := services.NewReconcileService(store, fetcher)
	authSvc := services.NewAuthService(store, middleware.SignToken)

	authEnabled := cfg.AdminEmail != "" && cfg.AdminPassword != ""
	if authEnabled {
		if err := authSvc.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("ensure admin account: %v", err)
		}
	} else {
		log.Printf("ADMIN_EMAIL/ADMIN_PASSWORD not set, issuance endpoint is unprotected")
	}

	mux := http.NewServeMux()
	api.NewRouter(issueSvc, reconcileSvc, authSvc, authEnabled).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":       true,
			"name":     "QR Code Manager API",
			"provider": cfg.Sheet.Provider,
		})
	})

	handler := middleware.SecureHeaders(middleware.NoStore(middleware.CORS(middleware.WithAuth(mux))))

	log.Printf("server listening on %s, validation links use host %s", cfg.Addr, host)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func publicBaseURL(host, addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		port = "3000"
	}
	return fmt.Sprintf("http://%s:%s", host, port)
}

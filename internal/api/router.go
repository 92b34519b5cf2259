package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/brkosebay/QR-Code-Manager/internal/middleware"
	"github.com/brkosebay/QR-Code-Manager/internal/services"
)

type Router struct {
	issue       *services.IssueService
	reconcile   *services.ReconcileService
	auth        *services.AuthService
	authEnabled bool
}

// NewRouter wires the issuance, reconciliation and auth services into HTTP
// routes. When authEnabled is false (no admin account configured) the
// issuance endpoint is left open for local development.
func NewRouter(issue *services.IssueService, reconcile *services.ReconcileService, auth *services.AuthService, authEnabled bool) *Router {
	return &Router{issue: issue, reconcile: reconcile, auth: auth, authEnabled: authEnabled}
}

func (rt *Router) Register(mux *http.ServeMux) {
	addRespondent := http.Handler(http.HandlerFunc(rt.handleAddRespondent))
	if rt.authEnabled {
		addRespondent = middleware.RequireAuth(addRespondent)
	}
	mux.Handle("POST /add-respondent", addRespondent)
	mux.HandleFunc("GET /validate/{token}", rt.handleValidate)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)
}

// POST /add-respondent
// { "emails": ["a@x.com", "b@x.com"] }
func (rt *Router) handleAddRespondent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emails []string `json:"emails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid request body"})
		return
	}
	res, err := rt.issue.Issue(r.Context(), req.Emails)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": res.Token})
}

// GET /validate/{token}
// Rendered as a full-screen colored page so the outcome is readable at a
// glance on the phone that scanned the code.
func (rt *Router) handleValidate(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	res, err := rt.reconcile.ValidateToken(r.Context(), token)
	if err != nil {
		if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorBadGateway {
			log.Printf("validate %s: %s", token, se.Message)
			http.Error(w, "Could not reach the survey response source", http.StatusBadGateway)
			return
		}
		log.Printf("validate %s: %v", token, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	switch res.Status {
	case services.StatusGiftGranted:
		writeOutcomePage(w, "green", "Participant is eligible for the gift.")
	case services.StatusAlreadyReceived:
		writeOutcomePage(w, "red", fmt.Sprintf("Participant has already received gift on: %s",
			res.GiftReceivedAt.Format(time.RFC1123)))
	case services.StatusNotCompleted:
		writeOutcomePage(w, "red", "Participant has not filled in the survey.")
	default:
		writeOutcomePage(w, "red", "Invalid token or participant not found.")
	}
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid request body"})
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOutcomePage(w http.ResponseWriter, color, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<body style=\"background-color: %s;\"><h1>%s</h1></body>", color, message)
}

// writeServiceError maps expected outcomes to their statuses without
// logging them as failures; anything else is logged and reported as 500.
func writeServiceError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorBadGateway:
			status = http.StatusBadGateway
			log.Printf("upstream failure: %s", se.Message)
		}
		writeJSON(w, status, map[string]any{"message": se.Message})
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Internal server error."})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brkosebay/QR-Code-Manager/internal/middleware"
	"github.com/brkosebay/QR-Code-Manager/internal/models"
	"github.com/brkosebay/QR-Code-Manager/internal/services"
)

// memStore backs the handler tests with the same conditional-transition
// semantics as the SQLite store.
type memStore struct {
	respondents map[string]*models.Respondent
	admins      map[string]*models.AdminUser
}

func newMemStore() *memStore {
	return &memStore{respondents: map[string]*models.Respondent{}, admins: map[string]*models.AdminUser{}}
}

func (m *memStore) FindRespondentByAnyIdentifier(identifiers []string) (*models.Respondent, error) {
	for _, r := range m.respondents {
		for _, have := range r.Identifiers {
			for _, want := range identifiers {
				if have == want {
					copy := *r
					return &copy, nil
				}
			}
		}
	}
	return nil, nil
}

func (m *memStore) CreateRespondent(r *models.Respondent) error {
	if existing, _ := m.FindRespondentByAnyIdentifier(r.Identifiers); existing != nil {
		return services.NewConflictError("respondent with this identifier already exists")
	}
	copy := *r
	m.respondents[r.Token] = &copy
	return nil
}

func (m *memStore) GetRespondentByToken(token string) (*models.Respondent, error) {
	r, ok := m.respondents[token]
	if !ok {
		return nil, nil
	}
	copy := *r
	return &copy, nil
}

func (m *memStore) MarkSurveyCompleted(token string) (bool, error) {
	r, ok := m.respondents[token]
	if !ok || r.HasCompletedSurvey {
		return false, nil
	}
	r.HasCompletedSurvey = true
	return true, nil
}

func (m *memStore) MarkGiftReceived(token string, at time.Time) (bool, error) {
	r, ok := m.respondents[token]
	if !ok || !r.HasCompletedSurvey || r.HasReceivedGift {
		return false, nil
	}
	r.HasReceivedGift = true
	r.GiftReceivedTimestamp = at
	return true, nil
}

func (m *memStore) FindAdminByEmail(email string) (*models.AdminUser, error) {
	u, ok := m.admins[email]
	if !ok {
		return nil, nil
	}
	copy := *u
	return &copy, nil
}

func (m *memStore) AddAdmin(u *models.AdminUser) error {
	copy := *u
	m.admins[u.Email] = &copy
	return nil
}

type stubQR struct{}

func (stubQR) Generate(emails []string, token string) (string, error) {
	return "qr_codes/" + token + ".png", nil
}

type stubRows struct {
	rows [][]string
	err  error
}

func (s *stubRows) FetchRows(ctx context.Context) ([][]string, error) {
	return s.rows, s.err
}

func newTestServer(t *testing.T, store *memStore, rows *stubRows, authEnabled bool) *httptest.Server {
	t.Helper()
	issueSvc := services.NewIssueService(store, stubQR{})
	reconcileSvc := services.NewReconcileService(store, rows)
	authSvc := services.NewAuthService(store, middleware.SignToken)
	mux := http.NewServeMux()
	NewRouter(issueSvc, reconcileSvc, authSvc, authEnabled).Register(mux)
	srv := httptest.NewServer(middleware.WithAuth(mux))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, bearer, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return buf.String()
}

func TestIssueAndValidateFlow(t *testing.T) {
	store := newMemStore()
	rows := &stubRows{rows: [][]string{{"carol@x.com"}, {"Bob@x.com"}}}
	srv := newTestServer(t, store, rows, false)

	// Issue a token for bob@x.com.
	resp := postJSON(t, srv.URL+"/add-respondent", "", `{"emails":["bob@x.com"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add-respondent status = %d", resp.StatusCode)
	}
	var created struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	resp.Body.Close()
	if created.Token == "" {
		t.Fatalf("no token returned")
	}

	// Duplicate issuance conflicts.
	resp = postJSON(t, srv.URL+"/add-respondent", "", `{"emails":["bob@x.com"]}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	// Empty email list is rejected.
	resp = postJSON(t, srv.URL+"/add-respondent", "", `{"emails":["  "]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank emails status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// The sheet row "Bob@x.com" matches via the toggled first letter.
	resp, err := http.Get(srv.URL + "/validate/" + created.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	body := readAll(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "eligible for the gift") {
		t.Fatalf("first validation: status %d body %q", resp.StatusCode, body)
	}

	// Re-validation reports the recorded timestamp, unchanged.
	r := store.respondents[created.Token]
	resp, err = http.Get(srv.URL + "/validate/" + created.Token)
	if err != nil {
		t.Fatalf("re-validate: %v", err)
	}
	body = readAll(t, resp)
	if !strings.Contains(body, "already received gift on") {
		t.Fatalf("second validation body %q", body)
	}
	if !strings.Contains(body, r.GiftReceivedTimestamp.Format(time.RFC1123)) {
		t.Fatalf("second validation must show the original timestamp, body %q", body)
	}

	// Unknown tokens render the invalid page with status 200.
	resp, err = http.Get(srv.URL + "/validate/not-a-token")
	if err != nil {
		t.Fatalf("validate unknown: %v", err)
	}
	body = readAll(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Invalid token") {
		t.Fatalf("unknown token: status %d body %q", resp.StatusCode, body)
	}
}

func TestValidateNotCompleted(t *testing.T) {
	store := newMemStore()
	rows := &stubRows{rows: [][]string{{"someone-else@x.com"}}}
	srv := newTestServer(t, store, rows, false)

	resp := postJSON(t, srv.URL+"/add-respondent", "", `{"emails":["bob@x.com"]}`)
	var created struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	resp.Body.Close()

	vresp, err := http.Get(srv.URL + "/validate/" + created.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	body := readAll(t, vresp)
	if !strings.Contains(body, "has not filled in the survey") {
		t.Fatalf("body %q", body)
	}
	if store.respondents[created.Token].HasCompletedSurvey {
		t.Fatalf("survey flag must stay false without a match")
	}
}

func TestValidateFetchFailure(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store, &stubRows{err: context.DeadlineExceeded}, false)

	resp := postJSON(t, srv.URL+"/add-respondent", "", `{"emails":["bob@x.com"]}`)
	var created struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	resp.Body.Close()

	vresp, err := http.Get(srv.URL + "/validate/" + created.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	defer vresp.Body.Close()
	if vresp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", vresp.StatusCode)
	}
}

func TestIssuanceRequiresAuth(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store, &stubRows{}, true)

	resp := postJSON(t, srv.URL+"/add-respondent", "", `{"emails":["bob@x.com"]}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated issuance status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	// Seed an admin, log in, retry with the bearer token.
	authSvc := services.NewAuthService(store, middleware.SignToken)
	if err := authSvc.EnsureAdmin("ops@example.com", "hunter22"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	resp = postJSON(t, srv.URL+"/api/auth/login", "", `{"email":"ops@example.com","password":"hunter22"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/auth/login", "", `{"email":"ops@example.com","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/add-respondent", login.Token, `{"emails":["bob@x.com"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("authenticated issuance status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()
}

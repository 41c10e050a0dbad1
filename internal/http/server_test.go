package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"monny/internal/auth"
	"monny/internal/cache"
	"monny/internal/services"
	"monny/internal/session"
	"monny/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	creds := map[string]auth.Credential{
		"alice": {DisplayName: "Alice", Email: "alice@example.com", PasswordHash: hash},
	}
	authn := auth.New("test-secret", time.Hour, creds)

	ledger := services.NewLedgerService(repo, session.NewManager(),
		cache.NewMemoryBalances(100, time.Minute), nil)

	srv := NewServer(":0", ledger, authn)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	return ts, client
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

func login(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	status, body := doJSON(t, client, http.MethodPost, baseURL+"/login",
		map[string]string{"username": "alice", "password": "s3cret"})
	if status != http.StatusOK {
		t.Fatalf("login: status %d, body %s", status, body)
	}
}

func TestLogin(t *testing.T) {
	ts, client := newTestServer(t)

	status, _ := doJSON(t, client, http.MethodPost, ts.URL+"/login",
		map[string]string{"username": "alice", "password": "wrong"})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", status)
	}

	status, body := doJSON(t, client, http.MethodPost, ts.URL+"/login",
		map[string]string{"username": "alice", "password": "s3cret"})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", status, body)
	}

	var resp struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.DisplayName != "Alice" {
		t.Fatalf("expected display name Alice, got %q", resp.DisplayName)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	ts, client := newTestServer(t)

	status, _ := doJSON(t, client, http.MethodGet, ts.URL+"/api/accounts", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", status)
	}
}

func TestAccountLifecycle(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL)

	status, body := doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts",
		map[string]string{"name": "Main"})
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", status, body)
	}
	var account struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		t.Fatalf("decode account: %v", err)
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts",
		map[string]string{"name": "Main"})
	if status != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", status)
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts",
		map[string]string{"name": ""})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("empty name: expected 422, got %d", status)
	}

	url := fmt.Sprintf("%s/api/accounts/%d/rename", ts.URL, account.ID)
	status, _ = doJSON(t, client, http.MethodPost, url, map[string]string{"name": "Household"})
	if status != http.StatusNoContent {
		t.Fatalf("rename: expected 204, got %d", status)
	}

	status, body = doJSON(t, client, http.MethodGet, ts.URL+"/api/accounts", nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	var list struct {
		Accounts []struct {
			Name string `json:"name"`
		} `json:"accounts"`
		Selected string `json:"selected"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Accounts) != 1 || list.Accounts[0].Name != "Household" {
		t.Fatalf("expected renamed account, got %+v", list.Accounts)
	}
	if list.Selected != "Household" {
		t.Fatalf("selection should follow rename, got %q", list.Selected)
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts/select",
		map[string]string{"name": "Ghost"})
	if status != http.StatusNotFound {
		t.Fatalf("select unknown: expected 404, got %d", status)
	}

	url = fmt.Sprintf("%s/api/accounts/%d", ts.URL, account.ID)
	status, _ = doJSON(t, client, http.MethodDelete, url, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", status)
	}
	status, _ = doJSON(t, client, http.MethodDelete, url, nil)
	if status != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", status)
	}
}

func TestTransactionsAndSummary(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL)

	status, body := doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts",
		map[string]string{"name": "Main"})
	if status != http.StatusCreated {
		t.Fatalf("create account: %d (%s)", status, body)
	}
	var account struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		t.Fatalf("decode account: %v", err)
	}

	url := fmt.Sprintf("%s/api/accounts/%d", ts.URL, account.ID)
	status, _ = doJSON(t, client, http.MethodPut, url,
		map[string]string{"starting_balance": "100.00"})
	if status != http.StatusNoContent {
		t.Fatalf("set starting balance: expected 204, got %d", status)
	}

	txURL := fmt.Sprintf("%s/api/accounts/%d/transactions", ts.URL, account.ID)
	status, body = doJSON(t, client, http.MethodPost, txURL, map[string]string{
		"occurred_at": "2025-03-01T10:00:00Z",
		"name":        "Salary",
		"type":        "income",
		"amount":      "500.00",
	})
	if status != http.StatusCreated {
		t.Fatalf("create income: expected 201, got %d (%s)", status, body)
	}
	var created struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	if created.Amount != "500.00" {
		t.Fatalf("expected amount 500.00, got %q", created.Amount)
	}

	status, body = doJSON(t, client, http.MethodPost, txURL, map[string]string{
		"occurred_at": "2025-03-02T10:00:00Z",
		"name":        "Groceries",
		"type":        "expense",
		"amount":      "120.00",
	})
	if status != http.StatusCreated {
		t.Fatalf("create expense: expected 201, got %d (%s)", status, body)
	}

	// Amounts are magnitudes; a signed one is rejected.
	status, _ = doJSON(t, client, http.MethodPost, txURL, map[string]string{
		"name":   "Bad",
		"type":   "expense",
		"amount": "-5.00",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("signed amount: expected 422, got %d", status)
	}

	status, _ = doJSON(t, client, http.MethodPost, txURL, map[string]string{
		"name":   "Bad",
		"type":   "transfer",
		"amount": "5.00",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("unknown type: expected 422, got %d", status)
	}

	status, body = doJSON(t, client, http.MethodGet, txURL, nil)
	if status != http.StatusOK {
		t.Fatalf("list transactions: expected 200, got %d", status)
	}
	var txs []struct {
		Name   string `json:"name"`
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Name != "Groceries" || txs[0].Amount != "-120.00" {
		t.Fatalf("expected newest first with signed amount, got %+v", txs[0])
	}

	status, body = doJSON(t, client, http.MethodGet, ts.URL+"/api/summary", nil)
	if status != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", status)
	}
	var summary struct {
		Accounts []struct {
			Income  string `json:"income"`
			Expense string `json:"expense"`
			Balance string `json:"balance"`
		} `json:"accounts"`
		NetWorth string `json:"net_worth"`
		Selected string `json:"selected"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summary.Accounts) != 1 {
		t.Fatalf("expected 1 account summary, got %d", len(summary.Accounts))
	}
	if summary.Accounts[0].Balance != "480.00" {
		t.Fatalf("expected balance 480.00, got %q", summary.Accounts[0].Balance)
	}
	if summary.Accounts[0].Income != "500.00" || summary.Accounts[0].Expense != "-120.00" {
		t.Fatalf("unexpected totals: %+v", summary.Accounts[0])
	}
	if summary.NetWorth != "480.00" {
		t.Fatalf("expected net worth 480.00, got %q", summary.NetWorth)
	}
	if summary.Selected != "Main" {
		t.Fatalf("expected Main selected, got %q", summary.Selected)
	}
}

func TestLogoutClearsSelection(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL)

	for _, name := range []string{"Main", "Savings"} {
		status, body := doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts",
			map[string]string{"name": name})
		if status != http.StatusCreated {
			t.Fatalf("create %s: %d (%s)", name, status, body)
		}
	}

	// Creating an account selects it, so Savings is the selection now.
	status, _ := doJSON(t, client, http.MethodPost, ts.URL+"/logout", nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", status)
	}

	status, _ = doJSON(t, client, http.MethodGet, ts.URL+"/api/accounts", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}

	login(t, client, ts.URL)
	status, body := doJSON(t, client, http.MethodGet, ts.URL+"/api/accounts", nil)
	if status != http.StatusOK {
		t.Fatalf("list after re-login: expected 200, got %d", status)
	}
	var list struct {
		Selected string `json:"selected"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Selected != "Main" {
		t.Fatalf("expected selection reset to first account Main, got %q", list.Selected)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, client := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		status, _ := doJSON(t, client, http.MethodGet, ts.URL+path, nil)
		if status != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, status)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected DENY frame options, got %q", got)
	}
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"helpinghand/internal/auth"
	"helpinghand/internal/core"
	"helpinghand/internal/donation"
	"helpinghand/internal/memory"
)

func newTestServer(t *testing.T, validator auth.Validator) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.AddUser(core.User{ID: "user-1", Name: "Ada", Email: "ada@example.com", Role: "donor"})
	store.AddUser(core.User{ID: "org-1", Name: "Grace", Email: "grace@example.com", Role: "organizer"})
	store.AddCategory(core.Category{ID: "cat-health", Name: "Health"})
	store.AddCampaign(core.Campaign{
		ID:          "camp-1",
		Title:       "Clinic fund",
		Description: "New rural clinic",
		Goal:        core.Money{Cents: 500000},
		CategoryID:  "cat-health",
		OrganizerID: "org-1",
		Featured:    true,
	})
	store.AddCampaign(core.Campaign{
		ID:          "camp-2",
		Title:       "Broken campaign",
		Goal:        core.Money{Cents: 100000},
		CategoryID:  "cat-missing",
		OrganizerID: "org-1",
	})

	recorder := donation.NewRecorder(store, store, store, store, nil)
	query := donation.NewQueryEngine(store, store, store)
	stats := donation.NewAggregator(store)

	s := NewServer("127.0.0.1:0", recorder, query, stats, validator, Options{
		StatsCacheTTL: time.Minute,
	})
	t.Cleanup(func() { s.limiter.Stop() })
	return s, store
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	return env
}

func TestRecordPaymentEndpoint(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/donation/payment/camp-1",
		`{"payerId": "user-1", "amount": "25.00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("success = false, body: %s", rec.Body.String())
	}

	content := env.Content.(map[string]any)
	payment := content["payment"].(map[string]any)
	if payment["amountCents"].(float64) != 2500 {
		t.Errorf("amountCents = %v, want 2500", payment["amountCents"])
	}
	campaign := content["campaign"].(map[string]any)
	if campaign["raisedCents"].(float64) != 2500 {
		t.Errorf("raisedCents = %v, want 2500", campaign["raisedCents"])
	}

	c, err := store.GetCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if c.Raised.Cents != 2500 || len(c.PaymentIDs) != 1 {
		t.Errorf("campaign state = raised %d, refs %v", c.Raised.Cents, c.PaymentIDs)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	s, store := newTestServer(t, nil)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
	}{
		{"unknown campaign", "/api/v1/donation/payment/no-such", `{"payerId": "user-1", "amount": "10"}`, http.StatusNotFound},
		{"unknown payer", "/api/v1/donation/payment/camp-1", `{"payerId": "ghost", "amount": "10"}`, http.StatusNotFound},
		{"zero amount", "/api/v1/donation/payment/camp-1", `{"payerId": "user-1", "amount": "0"}`, http.StatusBadRequest},
		{"negative amount", "/api/v1/donation/payment/camp-1", `{"payerId": "user-1", "amount": "-5"}`, http.StatusBadRequest},
		{"missing amount", "/api/v1/donation/payment/camp-1", `{"payerId": "user-1"}`, http.StatusBadRequest},
		{"malformed body", "/api/v1/donation/payment/camp-1", `{"payerId"`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	// None of the rejected requests may have touched the ledger.
	c, err := store.GetCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if c.Raised.Cents != 0 || len(c.PaymentIDs) != 0 {
		t.Errorf("ledger mutated by rejected requests: raised %d, refs %v", c.Raised.Cents, c.PaymentIDs)
	}
}

func TestListDonations(t *testing.T) {
	s, _ := newTestServer(t, nil)

	t.Run("broken refs are dropped", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donations", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		items := env.Content.([]any)
		if len(items) != 1 {
			t.Fatalf("len = %d, want 1 (camp-2 has a broken category ref)", len(items))
		}
		view := items[0].(map[string]any)
		if view["id"] != "camp-1" {
			t.Errorf("id = %v, want camp-1", view["id"])
		}
		category := view["category"].(map[string]any)
		if category["name"] != "Health" {
			t.Errorf("category = %v, want Health inline", category)
		}
	})

	t.Run("featured filter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donations?featured=true", "")
		env := decodeEnvelope(t, rec)
		if len(env.Content.([]any)) != 1 {
			t.Errorf("featured filter returned %d items, want 1", len(env.Content.([]any)))
		}
	})

	t.Run("search miss is empty list not error", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donations?searchText=zzz", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Content != nil {
			if items := env.Content.([]any); len(items) != 0 {
				t.Errorf("items = %v, want empty", items)
			}
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donations?limit=abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetDonation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donation/camp-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		view := env.Content.(map[string]any)
		organizer := view["organizer"].(map[string]any)
		if organizer["name"] != "Grace" {
			t.Errorf("organizer = %v, want Grace inline", organizer)
		}
	})

	t.Run("miss is 404", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donation/no-such", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Success {
			t.Error("success = true on 404")
		}
	})

	t.Run("broken ref is 404", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donation/camp-2", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestStatisticsEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	// Two payments through the API so statistics see committed data.
	for _, body := range []string{
		`{"payerId": "user-1", "amount": "10.00"}`,
		`{"payerId": "org-1", "amount": "5.00"}`,
	} {
		rec := doRequest(t, s, http.MethodPost, "/api/v1/donation/payment/camp-1", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("seed payment failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("user totals", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/statistics/user-total-donation/user-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		content := env.Content.(map[string]any)
		if content["totalDonation"].(float64) != 1500 {
			t.Errorf("totalDonation = %v, want 1500", content["totalDonation"])
		}
		if content["userTotalDonation"].(float64) != 1000 {
			t.Errorf("userTotalDonation = %v, want 1000", content["userTotalDonation"])
		}
	})

	t.Run("quiet payer gets zeros not 404", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/statistics/user-total-donation/org-quiet", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		content := env.Content.(map[string]any)
		if content["userTotalDonation"].(float64) != 0 {
			t.Errorf("userTotalDonation = %v, want 0", content["userTotalDonation"])
		}
	})

	t.Run("daily totals custom window", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/statistics/payments?window=custom&days=3", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		rows := env.Content.([]any)
		if len(rows) != 3 {
			t.Fatalf("rows = %d, want 3", len(rows))
		}
		last := rows[2].(map[string]any)
		if last["date"] != time.Now().UTC().Format("2006-01-02") {
			t.Errorf("last date = %v, want today", last["date"])
		}
		if last["totalAmount"].(float64) != 1500 {
			t.Errorf("today total = %v, want 1500", last["totalAmount"])
		}
		first := rows[0].(map[string]any)
		if first["totalAmount"].(float64) != 0 {
			t.Errorf("gap day total = %v, want 0", first["totalAmount"])
		}
	})

	t.Run("named windows", func(t *testing.T) {
		for _, window := range []string{"week", "month", "year"} {
			rec := doRequest(t, s, http.MethodGet, "/api/v1/statistics/payments?window="+window, "")
			if rec.Code != http.StatusOK {
				t.Errorf("window %s: status = %d", window, rec.Code)
			}
		}
	})

	t.Run("invalid windows", func(t *testing.T) {
		for _, target := range []string{
			"/api/v1/statistics/payments?window=decade",
			"/api/v1/statistics/payments?window=custom",
			"/api/v1/statistics/payments?window=custom&days=0",
			"/api/v1/statistics/payments?window=custom&days=-2",
			"/api/v1/statistics/payments?window=week&days=9",
			"/api/v1/statistics/payments?window=month&days=9",
			"/api/v1/statistics/payments?window=year&days=9",
			"/api/v1/statistics/payments?days=9",
		} {
			rec := doRequest(t, s, http.MethodGet, target, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", target, rec.Code)
			}
		}
	})
}

func TestAuthRequired(t *testing.T) {
	const secret = "test-secret"
	s, _ := newTestServer(t, auth.NewJWTValidator(secret))

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/v1/donation/payment/camp-1",
			`{"payerId": "user-1", "amount": "10"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token, payer from claims", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}

		httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/donation/payment/camp-1",
			strings.NewReader(`{"amount": "10"}`))
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, httpReq)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		payment := env.Content.(map[string]any)["payment"].(map[string]any)
		if payment["payerId"] != "user-1" {
			t.Errorf("payerId = %v, want user-1 from token subject", payment["payerId"])
		}
	})

	t.Run("list endpoint stays public", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/donations", "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, target := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", target, rec.Code)
		}
	}
}


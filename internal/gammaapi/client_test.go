package gammaapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/liamashdown/resolvewatch/internal/config"
	"github.com/liamashdown/resolvewatch/internal/market"
)

const sampleMarket = `{
	"id": "512345",
	"conditionId": "0xabc",
	"slug": "will-eth-flip-btc",
	"question": "Will ETH flip BTC by market cap in 2026?",
	"description": "Resolves YES if ETH market cap exceeds BTC at any point in 2026.",
	"resolutionSource": "https://coinmarketcap.com",
	"endDate": "2026-12-31T23:59:59Z",
	"createdAt": "2026-01-02T10:00:00.123Z",
	"category": "Crypto",
	"volumeNum": 12345.5,
	"active": true,
	"closed": false,
	"outcomes": "[\"Yes\", \"No\"]"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{GammaAPIBaseURL: srv.URL, GammaAPIRPS: 100})
}

func TestGetMarketByID(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(sampleMarket))
	})

	m, err := c.GetMarketByID(context.Background(), "512345")
	if err != nil {
		t.Fatalf("GetMarketByID: %v", err)
	}
	if path != "/markets/512345" {
		t.Errorf("path = %q", path)
	}
	if m.ID != "512345" || m.Slug != "will-eth-flip-btc" || m.Closed {
		t.Errorf("market = %+v", m)
	}
}

func TestGetMarketBySlug(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(sampleMarket))
	})

	if _, err := c.GetMarketBySlug(context.Background(), "will-eth-flip-btc"); err != nil {
		t.Fatalf("GetMarketBySlug: %v", err)
	}
	if path != "/markets/slug/will-eth-flip-btc" {
		t.Errorf("path = %q", path)
	}
}

func TestGetMarketErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
	}{
		{"not found", http.StatusNotFound, `{}`, true},
		{"empty body object", http.StatusOK, `{}`, true},
		{"server error", http.StatusBadGateway, `bad gateway`, false},
		{"invalid json", http.StatusOK, `{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GetMarketByID(context.Background(), "1")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("err = %v, notFound want %v", err, tt.notFound)
			}
		})
	}
}

func TestToMarket(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	gm := &Market{
		ID:               "512345",
		Slug:             "will-eth-flip-btc",
		Question:         "Will ETH flip BTC?",
		Description:      "Resolves YES if it happens.",
		ResolutionSource: "https://coinmarketcap.com",
		EndDate:          "2026-12-31T23:59:59Z",
		CreatedAt:        "2026-01-02T10:00:00.123Z",
		Category:         "Crypto",
		Outcomes:         `["Yes", "No"]`,
	}

	m, err := ToMarket(gm, now)
	if err != nil {
		t.Fatalf("ToMarket: %v", err)
	}

	wantClose := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	if m.ID != "gamma-512345" || m.Category != "crypto" || m.Status != market.StatusActive {
		t.Errorf("market = %+v", m)
	}
	if !m.CloseTime.Equal(wantClose) || !m.ResolutionDeadline.Equal(wantClose.Add(48*time.Hour)) {
		t.Errorf("close=%v deadline=%v", m.CloseTime, m.ResolutionDeadline)
	}
	if len(m.Rules.PrimarySources) != 2 || m.Rules.PrimarySources[0] != "https://coinmarketcap.com" {
		t.Errorf("sources = %v", m.Rules.PrimarySources)
	}
	want := []market.Outcome{market.OutcomeYes, market.OutcomeNo, market.OutcomeUnknown, market.OutcomeEarly}
	if len(m.AllowedOutcomes) != len(want) {
		t.Fatalf("outcomes = %v", m.AllowedOutcomes)
	}
	for i := range want {
		if m.AllowedOutcomes[i] != want[i] {
			t.Errorf("outcomes = %v, want %v", m.AllowedOutcomes, want)
		}
	}

	gm.Closed = true
	gm.CreatedAt = ""
	m, err = ToMarket(gm, now)
	if err != nil {
		t.Fatalf("ToMarket closed: %v", err)
	}
	if m.Status != market.StatusClosed {
		t.Errorf("status = %s, want CLOSED", m.Status)
	}
	if !m.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want now", m.CreatedAt)
	}
}

func TestToMarketRejectsMissingEndDate(t *testing.T) {
	if _, err := ToMarket(&Market{ID: "1", Question: "q"}, time.Now()); err == nil {
		t.Fatal("expected error for missing end date")
	}
	if _, err := ToMarket(&Market{ID: "1", EndDate: "2026-01-01"}, time.Now()); err == nil {
		t.Fatal("expected error for missing question")
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liamashdown/resolvewatch/internal/config"
	"github.com/liamashdown/resolvewatch/internal/events"
	"github.com/liamashdown/resolvewatch/internal/gammaapi"
	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/liamashdown/resolvewatch/internal/registry"
	"github.com/liamashdown/resolvewatch/internal/resolution"
	"github.com/liamashdown/resolvewatch/internal/resolver"
	"github.com/liamashdown/resolvewatch/internal/scheduler"
	"github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server   *Server
	registry *registry.Registry
	service  *resolution.Service
	resolved chan string
}

type fakeGamma struct {
	market *gammaapi.Market
	err    error
}

func (f *fakeGamma) GetMarketByID(ctx context.Context, id string) (*gammaapi.Market, error) {
	return f.market, f.err
}

func (f *fakeGamma) GetMarketBySlug(ctx context.Context, slug string) (*gammaapi.Market, error) {
	return f.market, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeStatus struct{}

func (fakeStatus) Status() scheduler.Status {
	return scheduler.Status{Running: true, IntervalMs: 30000, ChecksPerformed: 3}
}

func newTestEnv(t *testing.T, r resolver.Resolver, deps Deps) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	bus := events.NewBus(log)
	reg := registry.New(log)
	reg.AddMarket(testMarket("m-1"))
	reg.AddMarket(testMarket("m-2"))

	env := &testEnv{registry: reg, resolved: make(chan string, 4)}
	bus.Subscribe(events.ResolutionCompleted, func(ctx context.Context, e events.Event) error {
		env.resolved <- e.MarketID
		return nil
	})

	if r == nil {
		r = resolver.Func(func(ctx context.Context, m market.Market) (*resolver.Result, error) {
			return &resolver.Result{
				Submission: market.Submission{
					MarketID:   m.ID,
					Outcome:    market.OutcomeYes,
					Reasoning:  "Confirmed.",
					Sources:    []market.Source{},
					Confidence: 0.9,
					ResolvedAt: time.Now().UTC(),
				},
				ModelUsed: "test:online",
			}, nil
		})
	}

	env.service = resolution.New(&config.Config{ConfidenceThreshold: 0.6}, r, reg, bus, log)
	deps.Registry = reg
	deps.Service = env.service
	env.server = New(context.Background(), deps, log)
	return env
}

func testMarket(id string) market.Market {
	closeTime := time.Now().Add(-time.Hour).UTC()
	return market.Market{
		ID:                 id,
		Question:           "Question " + id,
		CreatedAt:          closeTime.Add(-24 * time.Hour),
		CloseTime:          closeTime,
		ResolutionDeadline: closeTime.Add(48 * time.Hour),
		Status:             market.StatusClosed,
		Rules:              market.Rules{PrimarySources: []string{"https://example.com"}},
		AllowedOutcomes:    []market.Outcome{market.OutcomeYes, market.OutcomeNo},
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func validSubmission(id string) map[string]any {
	return map[string]any{
		"marketId":   id,
		"outcome":    "NO",
		"reasoning":  "Manual review.",
		"sources":    []any{},
		"confidence": 0.8,
		"resolvedAt": time.Now().UTC().Format(time.RFC3339),
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, Deps{Scheduler: fakeStatus{}})

	w := env.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	stats := body["stats"].(map[string]any)
	if stats["totalMarkets"].(float64) != 2 || stats["totalResolutions"].(float64) != 0 || stats["lastResolution"] != nil {
		t.Errorf("stats = %v", stats)
	}
	if sched := body["scheduler"].(map[string]any); sched["running"] != true {
		t.Errorf("scheduler = %v", sched)
	}
}

func TestReady(t *testing.T) {
	env := newTestEnv(t, nil, Deps{AuditDB: fakePinger{}})
	if w := env.do(t, http.MethodGet, "/ready", nil); w.Code != http.StatusOK {
		t.Errorf("ready status = %d", w.Code)
	}

	env = newTestEnv(t, nil, Deps{AuditDB: fakePinger{err: errors.New("down")}})
	if w := env.do(t, http.MethodGet, "/ready", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status with db down = %d", w.Code)
	}
}

func TestMarketsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, Deps{})

	w := env.do(t, http.MethodGet, "/markets", nil)
	if body := decode(t, w); body["count"].(float64) != 2 {
		t.Errorf("count = %v", body["count"])
	}

	if w := env.do(t, http.MethodGet, "/market/m-1", nil); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/market/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", w.Code)
	}
}

func TestCreateMarket(t *testing.T) {
	env := newTestEnv(t, nil, Deps{})

	m := testMarket("m-new")
	m.Status = market.StatusActive
	w := env.do(t, http.MethodPost, "/markets", m)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got, _ := env.registry.GetMarket(context.Background(), "m-new"); got == nil {
		t.Error("market not added")
	}

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{"},
		{"missing question", map[string]any{"id": "x", "status": "ACTIVE"}},
		{"bad status", func() market.Market { m := testMarket("x"); m.Status = "OPEN"; return m }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/markets", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d", w.Code)
			}
		})
	}
}

func TestTrigger(t *testing.T) {
	env := newTestEnv(t, nil, Deps{})

	if w := env.do(t, http.MethodPost, "/trigger/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", w.Code)
	}

	w := env.do(t, http.MethodPost, "/trigger/m-1", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["status"] != "processing" || body["success"] != true {
		t.Errorf("body = %v", body)
	}

	select {
	case id := <-env.resolved:
		if id != "m-1" {
			t.Errorf("resolved %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("triggered resolution never completed")
	}

	w = env.do(t, http.MethodPost, "/trigger/m-1", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("second trigger status = %d", w.Code)
	}
	if body := decode(t, w); body["code"] != "ALREADY_RESOLVED" {
		t.Errorf("body = %v", body)
	}
}

func TestTriggerWhileProcessing(t *testing.T) {
	release := make(chan struct{})
	r := resolver.Func(func(ctx context.Context, m market.Market) (*resolver.Result, error) {
		<-release
		return nil, market.NewResolutionError(market.ErrResolverNoDecision, m.ID, nil)
	})
	env := newTestEnv(t, r, Deps{})
	defer close(release)

	if w := env.do(t, http.MethodPost, "/trigger/m-1", nil); w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !env.service.IsProcessing("m-1") {
		if time.Now().After(deadline) {
			t.Fatal("resolution never started")
		}
		time.Sleep(time.Millisecond)
	}

	w := env.do(t, http.MethodPost, "/trigger/m-1", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d", w.Code)
	}
	if body := decode(t, w); body["code"] != "ALREADY_PROCESSING" {
		t.Errorf("body = %v", body)
	}
}

func TestSubmitResolution(t *testing.T) {
	env := newTestEnv(t, nil, Deps{})

	w := env.do(t, http.MethodPost, "/resolve", validSubmission("m-2"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	rec := decode(t, w)["resolution"].(map[string]any)
	if rec["modelUsed"] != "external" || rec["outcome"] != "NO" || rec["processingTimeMs"].(float64) != 0 {
		t.Errorf("record = %v", rec)
	}

	m, _ := env.registry.GetMarket(context.Background(), "m-2")
	if m.Status != market.StatusResolved {
		t.Errorf("status = %s", m.Status)
	}

	w = env.do(t, http.MethodPost, "/resolve", validSubmission("m-2"))
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", w.Code)
	}
	if body := decode(t, w); body["existing"] == nil {
		t.Errorf("conflict should include existing record: %v", body)
	}

	if w := env.do(t, http.MethodPost, "/resolve", validSubmission("missing")); w.Code != http.StatusNotFound {
		t.Errorf("unknown market status = %d", w.Code)
	}

	bad := validSubmission("m-1")
	bad["outcome"] = "MAYBE"
	if w := env.do(t, http.MethodPost, "/resolve", bad); w.Code != http.StatusBadRequest {
		t.Errorf("bad outcome status = %d", w.Code)
	}
	bad = validSubmission("m-1")
	bad["confidence"] = 1.5
	if w := env.do(t, http.MethodPost, "/resolve", bad); w.Code != http.StatusBadRequest {
		t.Errorf("bad confidence status = %d", w.Code)
	}
}

func TestResolutionsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, Deps{})

	if w := env.do(t, http.MethodGet, "/resolution/m-1", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", w.Code)
	}

	env.do(t, http.MethodPost, "/resolve", validSubmission("m-1"))

	w := env.do(t, http.MethodGet, "/resolutions", nil)
	if body := decode(t, w); body["count"].(float64) != 1 {
		t.Errorf("count = %v", body["count"])
	}

	w = env.do(t, http.MethodGet, "/resolution/m-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["marketId"] != "m-1" || !strings.HasPrefix(body["id"].(string), "res-m-1-") {
		t.Errorf("body = %v", body)
	}
}

func TestImportMarket(t *testing.T) {
	gm := &gammaapi.Market{
		ID:       "777",
		Question: "Imported?",
		EndDate:  "2026-12-31T00:00:00Z",
		Outcomes: `["Yes","No"]`,
	}

	env := newTestEnv(t, nil, Deps{Gamma: &fakeGamma{market: gm}})
	w := env.do(t, http.MethodPost, "/markets/import/777", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if m, _ := env.registry.GetMarket(context.Background(), "gamma-777"); m == nil {
		t.Error("imported market not in registry")
	}

	tests := []struct {
		name  string
		gamma MarketFetcher
		want  int
	}{
		{"not configured", nil, http.StatusServiceUnavailable},
		{"not found", &fakeGamma{err: gammaapi.ErrNotFound}, http.StatusNotFound},
		{"upstream error", &fakeGamma{err: errors.New("timeout")}, http.StatusBadGateway},
		{"unconvertible", &fakeGamma{market: &gammaapi.Market{ID: "1", Question: "q"}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, Deps{Gamma: tt.gamma})
			if w := env.do(t, http.MethodPost, "/markets/import/1", nil); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, Deps{})
	env.do(t, http.MethodGet, "/markets", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "resolvewatch_http_requests_total") {
		t.Errorf("metrics status=%d", w.Code)
	}
}

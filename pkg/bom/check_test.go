package bom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valtyr/pcb-jlcpcb/pkg/cache"
	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
)

// stockFixtures maps part codes served by the fake catalog to stock counts.
var stockFixtures = map[string]int64{
	"C100": 100,
	"C200": 200,
	"C300": 5000,
}

func fixturePart(code string, stock int64) string {
	return fmt.Sprintf(`{
  "componentCode": %q,
  "componentModelEn": "MPN-%s",
  "componentBrandEn": "Acme",
  "firstSortName": "Chip Resistor - Surface Mount",
  "secondSortName": "Resistors",
  "componentSpecification": "0402",
  "describe": "test part",
  "stockCount": %d,
  "componentPrices": [{"startNumber": 1, "productPrice": 0.01}],
  "componentLibraryType": "base",
  "preferredComponentFlag": false
}`, code, code, stock)
}

// newTestChecker serves the stock fixtures from a fake search endpoint and
// counts upstream calls.
func newTestChecker(t *testing.T, concurrency int, calls *atomic.Int32) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Keyword string `json:"keyword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode search request: %v", err)
		}
		stock, ok := stockFixtures[req.Keyword]
		if !ok {
			fmt.Fprint(w, `{"code":200,"data":{"componentPageInfo":{"total":0,"list":[]}}}`)
			return
		}
		fmt.Fprintf(w, `{"code":200,"data":{"componentPageInfo":{"total":1,"list":[%s]}}}`,
			fixturePart(req.Keyword, stock))
	}))
	t.Cleanup(srv.Close)

	client := catalog.NewClient(srv.URL+"/search", srv.URL+"/detail", 5*time.Second, nil)
	resolver := catalog.NewResolver(client, cache.New(t.TempDir(), 24*time.Hour), false, nil)
	return NewChecker(resolver, concurrency, nil)
}

func TestCheckQuantityMath(t *testing.T) {
	var calls atomic.Int32
	checker := newTestChecker(t, 2, &calls)

	doc := &Document{Lines: []Line{
		{Designators: []string{"R1", "R2", "R3"}, LCSC: "C100", Qty: 3, Record: 1},
		{Designators: []string{"R4", "R5", "R6"}, LCSC: "C200", Qty: 3, Record: 2},
	}}

	results, err := checker.Check(context.Background(), doc, 50, false)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	short := results[0]
	if short.Status != StatusInsufficient {
		t.Errorf("stock 100 < required 150 must be insufficient-stock, got %s", short.Status)
	}
	if short.Required != 150 || short.Shortfall != 50 {
		t.Errorf("quantity math wrong: required %d shortfall %d", short.Required, short.Shortfall)
	}

	ok := results[1]
	if ok.Status != StatusAvailable {
		t.Errorf("stock 200 >= required 150 must be available, got %s", ok.Status)
	}
	if !ok.ExtendedCost.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("extended cost = %s, want 1.5", ok.ExtendedCost)
	}
}

func TestCheckDNPFiltering(t *testing.T) {
	var calls atomic.Int32
	doc := &Document{Lines: []Line{
		{Designators: []string{"C1"}, LCSC: "C300", Qty: 1, Record: 1},
		{Designators: []string{"C2"}, LCSC: "C300", Qty: 1, DNP: true, Record: 2},
	}}

	results, err := newTestChecker(t, 2, &calls).Check(context.Background(), doc, 1, false)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result without DNP, got %d", len(results))
	}

	results, err = newTestChecker(t, 2, &calls).Check(context.Background(), doc, 1, true)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results with DNP, got %d", len(results))
	}
}

func TestCheckSharesLookupsAcrossLines(t *testing.T) {
	var calls atomic.Int32
	checker := newTestChecker(t, 4, &calls)

	doc := &Document{Lines: []Line{
		{Designators: []string{"C1"}, LCSC: "C300", Qty: 1, Record: 1},
		{Designators: []string{"C2"}, LCSC: "C300", Qty: 1, Record: 2},
		{Designators: []string{"C3"}, LCSC: "300", Qty: 1, Record: 3},
	}}

	results, err := checker.Check(context.Background(), doc, 1, false)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("every line needs its own result, got %d", len(results))
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("identical identifiers must share one lookup, got %d calls", got)
	}
	for _, res := range results {
		if res.Status != StatusAvailable {
			t.Errorf("unexpected status %s for %+v", res.Status, res.Line)
		}
	}
}

func TestCheckBatchIsolation(t *testing.T) {
	var calls atomic.Int32
	checker := newTestChecker(t, 2, &calls)

	doc := &Document{Lines: []Line{
		{Designators: []string{"R1"}, LCSC: "C100", Qty: 1, Record: 1},
		{Designators: []string{"U1"}, LCSC: "C404", Qty: 1, Record: 2},
		{Designators: []string{"C1"}, LCSC: "C300", Qty: 1, Record: 3},
	}}

	results, err := checker.Check(context.Background(), doc, 1, false)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("missing part must not abort siblings, got %d results", len(results))
	}
	if results[0].Status != StatusAvailable || results[2].Status != StatusAvailable {
		t.Errorf("sibling lines affected: %s / %s", results[0].Status, results[2].Status)
	}
	if results[1].Status != StatusNotFound {
		t.Errorf("expected not-found, got %s", results[1].Status)
	}
	if results[1].Message == "" {
		t.Error("failure detail missing from result")
	}
}

func TestCheckFatalWhenCatalogUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := catalog.NewClient(srv.URL+"/search", srv.URL+"/detail", 5*time.Second, nil)
	resolver := catalog.NewResolver(client, cache.New(t.TempDir(), 24*time.Hour), false, nil)
	checker := NewChecker(resolver, 2, nil)

	doc := &Document{Lines: []Line{
		{Designators: []string{"R1"}, LCSC: "C100", Qty: 1, Record: 1},
		{Designators: []string{"R2"}, LCSC: "C200", Qty: 1, Record: 2},
	}}

	_, err := checker.Check(context.Background(), doc, 1, false)
	if err == nil {
		t.Fatal("total upstream failure must fail the whole check")
	}
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Errorf("error must carry the transport cause, got %v", err)
	}
}

func TestCheckTransientFailureAmongSuccessesStaysPerLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Keyword string `json:"keyword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode search request: %v", err)
		}
		if req.Keyword == "C503" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `{"code":200,"data":{"componentPageInfo":{"total":1,"list":[%s]}}}`,
			fixturePart(req.Keyword, 1000))
	}))
	t.Cleanup(srv.Close)

	client := catalog.NewClient(srv.URL+"/search", srv.URL+"/detail", 5*time.Second, nil)
	resolver := catalog.NewResolver(client, cache.New(t.TempDir(), 24*time.Hour), false, nil)
	checker := NewChecker(resolver, 2, nil)

	doc := &Document{Lines: []Line{
		{Designators: []string{"R1"}, LCSC: "C100", Qty: 1, Record: 1},
		{Designators: []string{"U1"}, LCSC: "C503", Qty: 1, Record: 2},
	}}

	results, err := checker.Check(context.Background(), doc, 1, false)
	if err != nil {
		t.Fatalf("one transient failure among successes must not abort: %v", err)
	}
	if results[0].Status != StatusAvailable {
		t.Errorf("healthy line affected: %s", results[0].Status)
	}
	if results[1].Status != StatusError || results[1].Message == "" {
		t.Errorf("transient failure must stay on its line: %+v", results[1])
	}
}

func TestCheckValueOnlyLineNotFound(t *testing.T) {
	var calls atomic.Int32
	checker := newTestChecker(t, 2, &calls)

	doc := &Document{Lines: []Line{
		{Designators: []string{"R9"}, Value: "10k 0402", Qty: 1, Record: 1},
		{Designators: []string{"C1"}, LCSC: "C300", Qty: 1, Record: 2},
	}}

	results, err := checker.Check(context.Background(), doc, 1, false)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("value-only line needs a result, got %d", len(results))
	}
	if results[0].Status != StatusNotFound || results[0].Message == "" {
		t.Errorf("value-only line must report not-found: %+v", results[0])
	}
	if results[1].Status != StatusAvailable {
		t.Errorf("sibling line affected: %s", results[1].Status)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("value-only lines must not hit the catalog, got %d calls", got)
	}
}

func TestExportCSV(t *testing.T) {
	results := []Result{
		{
			Line: Line{Designators: []string{"C1", "C2"}, LCSC: "C1525", Value: "100nF", Package: "0402"},
			Part: &catalog.Part{LCSC: "C1525", MPN: "CL05B104KO5NNNC", Description: `50V "X7R" 0402`, Package: "0402"},
		},
		{
			Line:   Line{Designators: []string{"U1"}, MPN: "NS4150"},
			Status: StatusNotFound,
		},
	}

	csv := Export(results)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if lines[0] != "Comment,Designator,Footprint,LCSC Part #" {
		t.Errorf("wrong header: %s", lines[0])
	}
	if lines[1] != `"CL05B104KO5NNNC 50V ""X7R"" 0402","C1,C2","0402","C1525"` {
		t.Errorf("wrong row: %s", lines[1])
	}
	if lines[2] != `"NS4150","U1","",""` {
		t.Errorf("unresolved row must keep empty part column: %s", lines[2])
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/valtyr/pcb-jlcpcb/pkg/cache"
	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
	"github.com/valtyr/pcb-jlcpcb/pkg/easyeda"
	"github.com/valtyr/pcb-jlcpcb/pkg/pins"
)

// ampPart is a catalog record for a non-passive part, so artifact
// generation needs the symbol service.
func ampPart(code string) string {
	return fmt.Sprintf(`{
  "componentCode": %q,
  "componentModelEn": "AMP-%s",
  "componentBrandEn": "Acme",
  "firstSortName": "Multimedia ICs",
  "secondSortName": "Audio Amplifiers",
  "componentSpecification": "SOT-23",
  "describe": "3W mono amplifier",
  "stockCount": 1000,
  "componentPrices": [{"startNumber": 1, "productPrice": 0.1}],
  "componentLibraryType": "base",
  "preferredComponentFlag": false
}`, code, code)
}

func ampPinShape(number, name string, x, y int) string {
	return fmt.Sprintf(
		"P~show~0~%s~%d~%d~0~gge1~0^^%d~%d^^M %d %d h 20~#880000^^1~%d~%d~0~%s~start~~~#0000FF^^1~%d~%d~0~%s~end~~~#0000FF^^0~%d~%d^^0~",
		number, x, y, x, y, x, y, x+22, y+3, name, x+15, y-1, number, x+17, y)
}

func ampPadShape(number string, cx int) string {
	return fmt.Sprintf("PAD~RECT~%d~0~6~6~1~~%s~~~0~gge2~~~~", cx, number)
}

// symbolHandler serves full symbol data for every part except C9002, which
// gets a payload with no pin records.
func symbolHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	full := &easyeda.Component{
		UUID: "uuid-1",
		DataStr: &easyeda.DataStr{Shape: []string{
			ampPinShape("1", "VCC", 100, 100),
			ampPinShape("2", "GND", 100, 110),
		}},
		PackageDetail: &easyeda.PackageDetail{
			Title: "SOT-23",
			DataStr: &easyeda.PackageDataStr{
				Head:  &easyeda.PackageHead{CPara: &easyeda.PackageParams{Package: "SOT-23"}},
				Shape: []string{ampPadShape("1", 0), ampPadShape("2", 10)},
			},
		},
	}
	pinless := &easyeda.Component{
		UUID:    "uuid-2",
		DataStr: &easyeda.DataStr{Shape: []string{"R~0~0~1~1~10~10~#880000~1~0~none~gge1~0~"}},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		comp := full
		if strings.Contains(r.URL.Path, "/C9002/") {
			comp = pinless
		}
		if err := json.NewEncoder(w).Encode(map[string]any{"success": true, "result": comp}); err != nil {
			t.Errorf("encode payload: %v", err)
		}
	}
}

func TestBuildAllIsolatesPartFailures(t *testing.T) {
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Keyword string `json:"keyword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode search request: %v", err)
		}
		fmt.Fprintf(w, `{"code":200,"data":{"componentPageInfo":{"total":1,"list":[%s]}}}`,
			ampPart(req.Keyword))
	}))
	t.Cleanup(catalogSrv.Close)
	symbolSrv := httptest.NewServer(symbolHandler(t))
	t.Cleanup(symbolSrv.Close)

	store := cache.New(t.TempDir(), 24*time.Hour)
	client := catalog.NewClient(catalogSrv.URL+"/search", catalogSrv.URL+"/detail", 5*time.Second, nil)
	resolver := catalog.NewResolver(client, store, false, nil)
	symbols := easyeda.NewClient(symbolSrv.URL+"/api/products/%s/components", 5*time.Second, nil)
	engine := pins.NewEngine(symbols, store, false, nil)

	results := buildAll(context.Background(), resolver, engine, []string{"C9001", "C9002", "C9003"}, "", 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !errors.Is(results[1].err, pins.ErrMissingSymbolData) {
		t.Errorf("expected missing symbol data for C9002, got %v", results[1].err)
	}
	for _, i := range []int{0, 2} {
		res := results[i]
		if res.err != nil {
			t.Fatalf("%s must not be affected by its sibling: %v", res.id, res.err)
		}
		if res.artifact == nil || len(res.artifact.Files) != 3 {
			t.Fatalf("%s: expected module, symbol and footprint files, got %+v", res.id, res.artifact)
		}
	}
	if results[0].artifact.Dir != "AMP-C9001" {
		t.Errorf("wrong artifact directory: %s", results[0].artifact.Dir)
	}
}

package bom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
)

// Checker resolves BOM lines against the catalog with a bounded amount of
// concurrency.
type Checker struct {
	resolver    *catalog.Resolver
	concurrency int
	log         *zap.Logger
}

// NewChecker creates a checker. concurrency bounds simultaneous catalog
// lookups.
func NewChecker(resolver *catalog.Resolver, concurrency int, log *zap.Logger) *Checker {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{resolver: resolver, concurrency: concurrency, log: log}
}

// lookupKey identifies one distinct catalog lookup.
type lookupKey struct {
	// kind is "lcsc" or "mpn".
	kind string
	id   string
}

type lookupResult struct {
	part *catalog.Part
	err  error
}

// Check resolves every kept line and classifies its availability. Lines
// sharing an identifier share one lookup but keep separate results, in input
// order. Per-line failures never abort the batch; only total upstream
// unavailability does.
func (c *Checker) Check(ctx context.Context, doc *Document, boardQty int, includeDNP bool) ([]Result, error) {
	if boardQty < 1 {
		boardQty = 1
	}

	lines := keptLines(doc, includeDNP)
	lookups := c.resolveAll(ctx, distinctKeys(lines))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := catalogDown(lookups); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(lines))
	for _, line := range lines {
		key, ok := keyForLine(line)
		if !ok {
			// Free-text value only; there is nothing to look up.
			results = append(results, Result{
				Line:     line,
				Required: line.Qty * boardQty,
				Status:   StatusNotFound,
				Message:  "no catalog identifier (free-text value only)",
			})
			continue
		}
		results = append(results, c.classify(line, boardQty, lookups[key]))
	}
	return results, nil
}

// catalogDown reports total upstream failure: every distinct lookup failed
// transiently, so no result in the batch would carry real data. Transient
// failures among successes stay per-line.
func catalogDown(lookups map[lookupKey]lookupResult) error {
	if len(lookups) == 0 {
		return nil
	}
	var first error
	for _, lr := range lookups {
		transient := errors.Is(lr.err, catalog.ErrUnavailable) || errors.Is(lr.err, catalog.ErrRateLimited)
		if !transient {
			return nil
		}
		if first == nil {
			first = lr.err
		}
	}
	return fmt.Errorf("bom: catalog unreachable (%d lookups failed): %w", len(lookups), first)
}

// resolveAll performs the distinct lookups through a bounded pool, joined by
// key rather than completion order.
func (c *Checker) resolveAll(ctx context.Context, keys []lookupKey) map[lookupKey]lookupResult {
	lookups := make(map[lookupKey]lookupResult, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			var part *catalog.Part
			var err error
			switch key.kind {
			case "lcsc":
				part, err = c.resolver.Resolve(gctx, key.id)
			default:
				part, err = c.resolver.ResolveMPN(gctx, key.id)
			}
			if err != nil {
				c.log.Debug("bom lookup failed", zap.String("id", key.id), zap.Error(err))
			}
			mu.Lock()
			lookups[key] = lookupResult{part: part, err: err}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; per-line failures live in the map.
	_ = g.Wait()
	return lookups
}

// classify turns one line's lookup outcome into a Result.
func (c *Checker) classify(line Line, boardQty int, lookup lookupResult) Result {
	res := Result{Line: line, Required: line.Qty * boardQty}

	switch {
	case lookup.err != nil:
		res.Message = lookup.err.Error()
		switch {
		case errors.Is(lookup.err, catalog.ErrNotFound):
			res.Status = StatusNotFound
		case errors.Is(lookup.err, catalog.ErrAmbiguous):
			res.Status = StatusAmbiguous
		default:
			res.Status = StatusError
		}
	case lookup.part == nil:
		res.Status = StatusNotFound
	default:
		res.Part = lookup.part
		if lookup.part.Stock >= int64(res.Required) {
			res.Status = StatusAvailable
		} else {
			res.Status = StatusInsufficient
			res.Shortfall = int64(res.Required) - lookup.part.Stock
		}
		if price, ok := lookup.part.PriceAt(res.Required); ok {
			res.UnitPrice = decimal.NewFromFloat(price)
			res.ExtendedCost = res.UnitPrice.Mul(decimal.NewFromInt(int64(res.Required)))
		}
	}
	return res
}

func keptLines(doc *Document, includeDNP bool) []Line {
	var lines []Line
	for _, line := range doc.Lines {
		if line.DNP && !includeDNP {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// keyForLine returns the lookup identity for a line. Lines carrying only a
// free-text value have no catalog identifier and report ok=false.
func keyForLine(line Line) (lookupKey, bool) {
	switch {
	case line.LCSC != "":
		return lookupKey{kind: "lcsc", id: catalog.NormalizeID(line.LCSC)}, true
	case line.MPN != "":
		return lookupKey{kind: "mpn", id: line.MPN}, true
	default:
		return lookupKey{}, false
	}
}

func distinctKeys(lines []Line) []lookupKey {
	seen := make(map[lookupKey]bool)
	var keys []lookupKey
	for _, line := range lines {
		key, ok := keyForLine(line)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// Export renders results as the supplier's assembly CSV:
// Comment,Designator,Footprint,LCSC Part #. Row order follows the input.
func Export(results []Result) string {
	var b strings.Builder
	b.WriteString("Comment,Designator,Footprint,LCSC Part #\n")
	for _, res := range results {
		comment := res.Line.Value
		footprint := res.Line.Package
		lcsc := catalog.NormalizeID(res.Line.LCSC)
		if res.Part != nil {
			comment = res.Part.MPN + " " + res.Part.Description
			if footprint == "" {
				footprint = res.Part.Package
			}
			lcsc = res.Part.LCSC
		} else if comment == "" {
			comment = res.Line.MPN
		}
		if res.Line.LCSC == "" && res.Part == nil {
			lcsc = ""
		}

		b.WriteString(csvQuote(comment))
		b.WriteByte(',')
		b.WriteString(csvQuote(strings.Join(res.Line.Designators, ",")))
		b.WriteByte(',')
		b.WriteString(csvQuote(footprint))
		b.WriteByte(',')
		b.WriteString(csvQuote(lcsc))
		b.WriteByte('\n')
	}
	return b.String()
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

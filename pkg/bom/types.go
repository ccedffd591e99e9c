// Package bom parses bill-of-materials documents, checks part availability
// against the supplier catalog, and exports assembly CSVs.
package bom

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
)

// Line is one BOM entry: a set of reference designators sharing a part.
type Line struct {
	// Designators are the board references (e.g. "C1", "C2").
	Designators []string `json:"designators"`
	// LCSC is the supplier part number, when the BOM pins one down.
	LCSC string `json:"lcsc,omitempty"`
	// MPN is the manufacturer part number.
	MPN string `json:"mpn,omitempty"`
	// Value is the passive value text (e.g. "100nF").
	Value string `json:"value,omitempty"`
	// Package is the footprint name.
	Package string `json:"package,omitempty"`
	// Qty is the per-board quantity; defaults to the designator count.
	Qty int `json:"qty"`
	// DNP marks do-not-populate lines.
	DNP bool `json:"dnp,omitempty"`
	// Record is the 1-based source record number, for error reporting.
	Record int `json:"-"`
}

// LineError is a malformed record in a BOM document. It is collected, not
// fatal; the rest of the document still parses.
type LineError struct {
	Record int    `json:"record"`
	Reason string `json:"reason"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("bom: record %d: %s", e.Record, e.Reason)
}

// Document is a parsed BOM: usable lines plus per-record errors.
type Document struct {
	Lines  []Line      `json:"lines"`
	Errors []LineError `json:"errors,omitempty"`
}

// Status classifies one line's availability check.
type Status int

const (
	// StatusAvailable means stock covers the required quantity.
	StatusAvailable Status = iota
	// StatusInsufficient means the part exists but stock falls short.
	StatusInsufficient
	// StatusNotFound means no catalog match for the identifier.
	StatusNotFound
	// StatusAmbiguous means the identifier matches several catalog
	// entries; a stricter identifier is needed.
	StatusAmbiguous
	// StatusError means the lookup failed transiently (rate limit,
	// upstream outage); rerunning may succeed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusInsufficient:
		return "insufficient-stock"
	case StatusNotFound:
		return "not-found"
	case StatusAmbiguous:
		return "ambiguous"
	default:
		return "error"
	}
}

// MarshalText lets Status render as its name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the availability check outcome for one BOM line. Every kept
// input line gets exactly one Result, in input order.
type Result struct {
	Line   Line          `json:"line"`
	Part   *catalog.Part `json:"part,omitempty"`
	Status Status        `json:"status"`
	// Required is line qty times board qty.
	Required int `json:"required"`
	// Shortfall is how many units stock is missing (0 when available).
	Shortfall int64 `json:"shortfall,omitempty"`
	// UnitPrice is the tier price at the required quantity.
	UnitPrice decimal.Decimal `json:"unit_price"`
	// ExtendedCost is unit price times required quantity.
	ExtendedCost decimal.Decimal `json:"extended_cost"`
	// Message carries failure detail for not-found/ambiguous/error lines.
	Message string `json:"message,omitempty"`
}

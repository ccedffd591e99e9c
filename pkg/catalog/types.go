package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// Part is a normalized part record from the supplier catalog.
type Part struct {
	// LCSC is the supplier part number (e.g. "C307331").
	LCSC string `json:"lcsc"`
	// MPN is the manufacturer part number.
	MPN string `json:"mpn"`
	// Manufacturer name.
	Manufacturer string `json:"manufacturer"`
	// Category (e.g. "Resistors").
	Category string `json:"category"`
	// Subcategory (e.g. "Chip Resistors - Surface Mount").
	Subcategory string `json:"subcategory,omitempty"`
	// Package/footprint name (e.g. "0402", "SOT-23").
	Package string `json:"package"`
	// Description free text.
	Description string `json:"description"`
	// Stock quantity at query time.
	Stock int64 `json:"stock"`
	// PriceBreaks are quantity price tiers in USD.
	PriceBreaks []PriceBreak `json:"price_breaks,omitempty"`
	// Datasheet URL, if published.
	Datasheet string `json:"datasheet,omitempty"`
	// Basic marks the low-assembly-fee tier.
	Basic bool `json:"basic"`
	// Preferred marks promotional parts (a subset of basic).
	Preferred bool `json:"preferred"`
	// Attributes parsed from the detail endpoint or the description.
	Attributes Attributes `json:"attributes,omitempty"`
}

// PriceBreak is one quantity pricing tier.
type PriceBreak struct {
	// Qty is the minimum quantity for this tier.
	Qty int `json:"qty"`
	// Price is the unit price in USD.
	Price float64 `json:"price"`
}

// Attributes holds structured electrical attributes for passives.
type Attributes struct {
	Resistance  string `json:"resistance,omitempty"`
	Capacitance string `json:"capacitance,omitempty"`
	Inductance  string `json:"inductance,omitempty"`
	Voltage     string `json:"voltage,omitempty"`
	Power       string `json:"power,omitempty"`
	Tolerance   string `json:"tolerance,omitempty"`
	Dielectric  string `json:"dielectric,omitempty"`
}

// Empty reports whether no attribute is set.
func (a Attributes) Empty() bool {
	return a == Attributes{}
}

// Page is one page of search results.
type Page struct {
	// Parts returned for the requested page.
	Parts []Part
	// Total matches across all pages.
	Total int64
}

// Filters narrow a catalog search.
type Filters struct {
	// BasicOnly restricts results to the basic (low assembly fee) tier.
	BasicOnly bool
	// IncludePreferred adds promotional parts; only meaningful with
	// BasicOnly (validated at the CLI boundary).
	IncludePreferred bool
	// Page is 1-indexed.
	Page int
	// Limit is the page size requested from the remote.
	Limit int
}

// PriceAt returns the unit price for the given quantity, selecting the
// highest tier whose minimum quantity is satisfied. Falls back to the first
// tier when the quantity is below every minimum. Returns false when the part
// has no pricing.
func (p *Part) PriceAt(qty int) (float64, bool) {
	if len(p.PriceBreaks) == 0 {
		return 0, false
	}
	best := -1
	for i, pb := range p.PriceBreaks {
		if pb.Qty <= qty && (best < 0 || pb.Qty > p.PriceBreaks[best].Qty) {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	return p.PriceBreaks[best].Price, true
}

// URL returns the supplier product page for this part.
func (p *Part) URL() string {
	return fmt.Sprintf("https://www.lcsc.com/product-detail/%s.html", p.LCSC)
}

// PartType classifies a part for artifact generation.
type PartType int

const (
	TypeOther PartType = iota
	TypeResistor
	TypeCapacitor
	TypeInductor
	TypeLED
	TypeDiode
	TypeTransistor
)

// Type classifies the part from its category text.
func (p *Part) Type() PartType {
	cat := strings.ToLower(p.Category)
	subcat := strings.ToLower(p.Subcategory)
	contains := func(s string) bool {
		return strings.Contains(cat, s) || strings.Contains(subcat, s)
	}
	switch {
	case contains("resistor"):
		return TypeResistor
	case contains("capacitor"):
		return TypeCapacitor
	case contains("inductor"):
		return TypeInductor
	case contains("led"):
		return TypeLED
	case contains("diode"):
		return TypeDiode
	case contains("transistor"):
		return TypeTransistor
	default:
		return TypeOther
	}
}

// GenericPassive reports whether the part maps onto a stdlib generic module
// (two-pin passive) instead of a pin-mapped component.
func (p *Part) GenericPassive() bool {
	switch p.Type() {
	case TypeResistor, TypeCapacitor, TypeInductor:
		return true
	default:
		return false
	}
}

// NormalizeID canonicalizes a supplier part number by ensuring the "C"
// prefix (the supplier accepts bare digits in most UIs).
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	if id[0] == 'c' {
		return "C" + id[1:]
	}
	if id[0] != 'C' {
		return "C" + id
	}
	return id
}

var packagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(0201|0402|0603|0805|1206|1210|2010|2512)\b`),
	regexp.MustCompile(`\b(SOT-\d+[A-Z]?)\b`),
	regexp.MustCompile(`\b(QFN-\d+)\b`),
	regexp.MustCompile(`\b(QFP-\d+)\b`),
	regexp.MustCompile(`\b(SOIC-\d+)\b`),
	regexp.MustCompile(`\b(SOP-\d+)\b`),
	regexp.MustCompile(`\b(TSSOP-\d+)\b`),
	regexp.MustCompile(`\b(LQFP-\d+)\b`),
}

// packageFromDescription recovers a package name from the description when
// the catalog record leaves the specification field empty.
func packageFromDescription(desc string) string {
	for _, re := range packagePatterns {
		if m := re.FindStringSubmatch(desc); m != nil {
			return m[1]
		}
	}
	return ""
}

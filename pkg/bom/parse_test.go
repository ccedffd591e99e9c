package bom

import (
	"strings"
	"testing"
)

func TestParseJSON(t *testing.T) {
	input := `[
  {"designators": ["C1", "C2"], "lcsc": "C307331", "value": "100nF", "package": "0402"},
  {"designators": ["R1"], "mpn": "0402WGF1002TCE", "dnp": true},
  {"designators": ["U1"]}
]`

	doc, err := ParseJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}
	if len(doc.Errors) != 1 || doc.Errors[0].Record != 3 {
		t.Errorf("identifier-less record not collected as error: %+v", doc.Errors)
	}

	first := doc.Lines[0]
	if first.LCSC != "C307331" || first.Qty != 2 {
		t.Errorf("unexpected first line: %+v", first)
	}
	if !doc.Lines[1].DNP {
		t.Error("dnp flag lost")
	}
}

func TestParseCSVHeaderMapping(t *testing.T) {
	input := `Comment,Designator,Footprint,LCSC Part #,Quantity,DNP
100nF,"C1,C2,C3",0402,C1525,3,
10k,R5,0402,C25744,,yes
,U9,,,1,
`

	doc, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(doc.Lines), doc.Lines)
	}

	first := doc.Lines[0]
	if len(first.Designators) != 3 || first.Designators[0] != "C1" {
		t.Errorf("designators not split: %+v", first.Designators)
	}
	if first.Value != "100nF" || first.Package != "0402" || first.Qty != 3 {
		t.Errorf("columns mismapped: %+v", first)
	}

	second := doc.Lines[1]
	if !second.DNP {
		t.Error("dnp column not parsed")
	}
	if second.Qty != 1 {
		t.Errorf("quantity should default to designator count, got %d", second.Qty)
	}

	if len(doc.Errors) != 1 || doc.Errors[0].Record != 4 {
		t.Errorf("identifier-less row not collected: %+v", doc.Errors)
	}
}

func TestParseCSVBadQuantity(t *testing.T) {
	input := `Designator,LCSC,Qty
C1,C1525,lots
`
	doc, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(doc.Lines) != 0 || len(doc.Errors) != 1 {
		t.Errorf("bad quantity should be a line error: %+v / %+v", doc.Lines, doc.Errors)
	}
	if !strings.Contains(doc.Errors[0].Reason, "quantity") {
		t.Errorf("unhelpful error: %s", doc.Errors[0].Reason)
	}
}

func TestParseCSVValueOnlyLineKept(t *testing.T) {
	input := `Designator,Comment,Quantity
C7,10uF electrolytic,1
`
	doc, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(doc.Errors) != 0 {
		t.Fatalf("free-text value counts as an identifier: %+v", doc.Errors)
	}
	if len(doc.Lines) != 1 || doc.Lines[0].Value != "10uF electrolytic" {
		t.Errorf("value-only line not kept: %+v", doc.Lines)
	}
}

func TestParseZenBoardSource(t *testing.T) {
	input := `"""Test board."""

load("@stdlib/interfaces.zen", "Gnd", "Power")

vcc = Net("VCC")

NS4150(
    name = "U1",
    VCC = vcc,
    properties = {
        "LCSC Part": "C307331",
        "package": "SOT-23",
    },
)

Capacitor(name = "C1", value = "100nF", package = "0402", lcsc = "C1525")
Capacitor(name = "C2", value = "100nF", package = "0402", lcsc = "C1525")
Capacitor(name = "C3", value = "1uF", package = "0402", lcsc = "C52923", dnp = True)
`

	doc, err := ParseZen(input)
	if err != nil {
		t.Fatalf("ParseZen failed: %v", err)
	}
	if len(doc.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(doc.Lines), doc.Lines)
	}

	amp := doc.Lines[0]
	if amp.LCSC != "C307331" || amp.Package != "SOT-23" {
		t.Errorf("properties dict not read: %+v", amp)
	}
	if len(amp.Designators) != 1 || amp.Designators[0] != "U1" {
		t.Errorf("name argument not used as designator: %+v", amp.Designators)
	}

	caps := doc.Lines[1]
	if caps.LCSC != "C1525" || caps.Qty != 2 {
		t.Errorf("identical parts not grouped: %+v", caps)
	}
	if caps.Designators[0] != "C1" || caps.Designators[1] != "C2" {
		t.Errorf("designators not collected: %+v", caps.Designators)
	}

	if !doc.Lines[2].DNP {
		t.Errorf("dnp instantiation not flagged: %+v", doc.Lines[2])
	}
}

func TestParseZenRejectsGarbage(t *testing.T) {
	if _, err := ParseZen(`Component(name = `); err == nil {
		t.Error("expected parse error for truncated source")
	}
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	if _, err := ParseFile("bom.txt"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

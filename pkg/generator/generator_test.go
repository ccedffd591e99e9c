package generator

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
	"github.com/valtyr/pcb-jlcpcb/pkg/easyeda"
	"github.com/valtyr/pcb-jlcpcb/pkg/pins"
)

func TestSanitizePinName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"VCC", "VCC"},
		{"V+", "V_POS"},
		{"V-", "V_NEG"},
		{"~CS", "N_CS"},
		{"1", "P1"},
		{"GND", "GND"},
		{"SD/MODE", "SD_MODE"},
		{"", "PIN"},
	}
	for _, tc := range cases {
		if got := SanitizePinName(tc.in); got != tc.want {
			t.Errorf("SanitizePinName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeMPN(t *testing.T) {
	cases := []struct{ in, want string }{
		{"CL05B104KO5NNNC", "CL05B104KO5NNNC"},
		{"STM32F103C8T6", "STM32F103C8T6"},
		{"Part/Number", "Part_Number"},
		{"AMS1117-3.3", "AMS1117-3_3"},
	}
	for _, tc := range cases {
		if got := SanitizeMPN(tc.in); got != tc.want {
			t.Errorf("SanitizeMPN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateDescriptionKeepsRuneBoundaries(t *testing.T) {
	desc := strings.Repeat("µ", 120)
	got := truncateDescription(desc)
	if !utf8.ValidString(got) {
		t.Errorf("truncated description is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("µ", 97)+"..." {
		t.Errorf("wrong cut point: %d bytes", len(got))
	}

	short := "10kΩ ±1% 0402"
	if got := truncateDescription(short); got != short {
		t.Errorf("short descriptions must pass through, got %q", got)
	}
}

func TestPartValueFromDescription(t *testing.T) {
	cases := []struct {
		category, desc, want string
	}{
		{"Capacitors", "100nF 16V X7R 0402 MLCC", "100nF"},
		{"Capacitors", "10uF 25V", "10uF"},
		{"Resistors", "Chip Resistor 10kΩ 1% 0402", "10kΩ"},
		{"Inductors", "Power Inductor 10uH", "10uH"},
	}
	for _, tc := range cases {
		part := &catalog.Part{Category: tc.category, Description: tc.desc}
		if got := partValue(part); got != tc.want {
			t.Errorf("partValue(%q, %q) = %q, want %q", tc.category, tc.desc, got, tc.want)
		}
	}
}

func TestAttributesFromDescription(t *testing.T) {
	attrs := attributesFromDescription("100nF 16V X7R ±10% 0.1W 0402 MLCC")
	if attrs.Voltage != "16V" {
		t.Errorf("voltage = %q", attrs.Voltage)
	}
	if attrs.Tolerance != "10%" {
		t.Errorf("tolerance = %q", attrs.Tolerance)
	}
	if attrs.Dielectric != "X7R" {
		t.Errorf("dielectric = %q", attrs.Dielectric)
	}
	if attrs.Power != "0.1W" {
		t.Errorf("power = %q", attrs.Power)
	}
}

func testMapping() *pins.Mapping {
	return &pins.Mapping{
		PartID:    "C307331",
		UUID:      "uuid-42",
		Footprint: "SOT-23",
		Pins: []pins.Pin{
			{Pad: "1", Name: "VCC", X: 0, Y: 0, Rotation: 180},
			{Pad: "2", Name: "GND", X: 0, Y: 2.54, Rotation: 180},
			{Pad: "3", Name: "OUT", X: 10, Y: 1.27, Rotation: 0},
		},
		Pads: []easyeda.Pad{
			{Number: "1", Shape: easyeda.PadRect, X: 0, Y: 0, Width: 1, Height: 1.2},
			{Number: "2", Shape: easyeda.PadRect, X: 0, Y: 2, Width: 1, Height: 1.2},
			{Number: "3", Shape: easyeda.PadRect, X: 3, Y: 1, Width: 1, Height: 1.2},
		},
	}
}

func testPart() *catalog.Part {
	return &catalog.Part{
		LCSC:         "C307331",
		MPN:          "NS4150",
		Manufacturer: "Nsiway",
		Category:     "Audio",
		Package:      "SOT-23",
		Description:  "Mono amplifier",
		Basic:        true,
	}
}

func TestGenerateComponentPinOrder(t *testing.T) {
	artifact, err := Generate(testPart(), testMapping(), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if artifact.Name != "NS4150" || artifact.Dir != "NS4150" {
		t.Errorf("unexpected artifact identity: %q in %q", artifact.Name, artifact.Dir)
	}
	if len(artifact.Files) != 3 {
		t.Fatalf("expected zen+symbol+footprint, got %d files", len(artifact.Files))
	}

	zen := artifact.Files[0]
	if zen.Name != "NS4150.zen" {
		t.Errorf("unexpected module filename %q", zen.Name)
	}
	wantOrder := []string{`"1": "VCC"`, `"2": "GND"`, `"3": "OUT"`}
	last := -1
	for _, want := range wantOrder {
		idx := strings.Index(zen.Content, want)
		if idx < 0 {
			t.Fatalf("module source missing %q:\n%s", want, zen.Content)
		}
		if idx < last {
			t.Errorf("pin %q out of order", want)
		}
		last = idx
	}
	for _, want := range []string{"C307331", "Nsiway", "NS4150.kicad_sym", "NS4150.kicad_mod", "easyeda.com/component/uuid-42"} {
		if !strings.Contains(zen.Content, want) {
			t.Errorf("module source missing %q", want)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(testPart(), testMapping(), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := Generate(testPart(), testMapping(), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i := range a.Files {
		if a.Files[i].Content != b.Files[i].Content {
			t.Errorf("file %s differs between runs", a.Files[i].Name)
		}
	}
}

func TestGenerateNameOverride(t *testing.T) {
	artifact, err := Generate(testPart(), testMapping(), "AudioAmp")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if artifact.Name != "AudioAmp" {
		t.Errorf("override ignored: %q", artifact.Name)
	}
	// Directory still follows the part, not the override.
	if artifact.Dir != "NS4150" {
		t.Errorf("unexpected dir %q", artifact.Dir)
	}
	if artifact.Files[0].Name != "AudioAmp.zen" {
		t.Errorf("unexpected filename %q", artifact.Files[0].Name)
	}
}

func TestGenerateGenericPassive(t *testing.T) {
	part := &catalog.Part{
		LCSC:         "C25744",
		MPN:          "0402WGF1002TCE",
		Manufacturer: "UNI-ROYAL",
		Category:     "Resistors",
		Package:      "0402",
		Description:  "Chip Resistor 10kΩ ±1% 62.5mW 0402",
		Basic:        true,
	}

	artifact, err := Generate(part, nil, "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(artifact.Files) != 1 {
		t.Fatalf("generic passive should produce one file, got %d", len(artifact.Files))
	}
	content := artifact.Files[0].Content
	for _, want := range []string{"generics/Resistor.zen", `value = "10kΩ"`, `package = "0402"`, `tolerance = "1%"`} {
		if !strings.Contains(content, want) {
			t.Errorf("generic module missing %q:\n%s", want, content)
		}
	}
}

func TestKicadSymbolPlacesPinsBySide(t *testing.T) {
	sym := KicadSymbol("NS4150", testMapping())

	for _, want := range []string{
		"(kicad_symbol_lib",
		`(symbol "NS4150"`,
		`(symbol "NS4150_1_1"`,
		`(number "1"`,
		`(name "VCC"`,
	} {
		if !strings.Contains(sym, want) {
			t.Errorf("symbol missing %q", want)
		}
	}

	// Rotation 180 puts VCC on the left edge pointing right (angle 0),
	// rotation 0 puts OUT on the right edge pointing left (angle 180).
	vcc := lineContaining(sym, `(name "VCC"`)
	out := lineContaining(sym, `(name "OUT"`)
	vccPin := pinLine(sym, vcc)
	outPin := pinLine(sym, out)
	if !strings.Contains(vccPin, " 0) (length") {
		t.Errorf("VCC pin not pointing right: %s", vccPin)
	}
	if !strings.Contains(outPin, " 180) (length") {
		t.Errorf("OUT pin not pointing left: %s", outPin)
	}
}

// pinLine returns the "(pin ..." line preceding the given name line index.
func pinLine(s string, nameIdx int) string {
	idx := strings.LastIndex(s[:nameIdx], "(pin ")
	end := strings.Index(s[idx:], "\n")
	return s[idx : idx+end]
}

func lineContaining(s, substr string) int {
	idx := strings.Index(s, substr)
	if idx < 0 {
		panic(fmt.Sprintf("missing %q", substr))
	}
	return idx
}

func TestKicadFootprintPads(t *testing.T) {
	mapping := testMapping()
	mapping.Pads[0].ThroughHole = true
	mapping.Pads[0].Drill = 0.9

	mod := KicadFootprint("NS4150", mapping)
	for _, want := range []string{
		`(footprint "NS4150"`,
		`(pad "1" thru_hole rect`,
		"(drill 0.9000)",
		`(pad "2" smd rect`,
		`"F.Cu" "F.Paste" "F.Mask"`,
	} {
		if !strings.Contains(mod, want) {
			t.Errorf("footprint missing %q:\n%s", want, mod)
		}
	}
}

func TestKicadFootprintCentersPads(t *testing.T) {
	mapping := testMapping()
	mod := KicadFootprint("NS4150", mapping)

	// Pad x spans 0..3, so pad 1 lands at -1.5 after centering.
	if !strings.Contains(mod, "(at -1.5000") {
		t.Errorf("pads not recentered:\n%s", mod)
	}
}

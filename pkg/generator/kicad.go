package generator

import (
	"fmt"
	"math"
	"strings"

	"github.com/valtyr/pcb-jlcpcb/pkg/easyeda"
	"github.com/valtyr/pcb-jlcpcb/pkg/pins"
)

const (
	pinLength = 2.54
	boxMargin = 2.54
)

// KicadSymbol renders a .kicad_sym library holding one symbol. Pins are
// placed on the body side their rotation points them at, with the whole
// symbol centered on the origin. Output is deterministic for a given
// mapping.
func KicadSymbol(name string, mapping *pins.Mapping) string {
	minX, maxX, minY, maxY := symbolBounds(mapping.Pins)
	centerX := (minX + maxX) / 2
	centerY := (minY + maxY) / 2
	minX -= centerX
	maxX -= centerX
	minY -= centerY
	maxY -= centerY

	var b strings.Builder
	fmt.Fprintf(&b, "(kicad_symbol_lib\n")
	fmt.Fprintf(&b, "  (version 20231120)\n")
	fmt.Fprintf(&b, "  (generator \"pcb-jlcpcb\")\n")
	fmt.Fprintf(&b, "  (generator_version \"1.0\")\n")
	fmt.Fprintf(&b, "  (symbol %q\n", name)
	fmt.Fprintf(&b, "    (pin_names (offset 1.016))\n")
	fmt.Fprintf(&b, "    (exclude_from_sim no)\n")
	fmt.Fprintf(&b, "    (in_bom yes)\n")
	fmt.Fprintf(&b, "    (on_board yes)\n")

	fmt.Fprintf(&b, "    (property \"Reference\" \"U\" (at 0 %.4f 0)\n", maxY+boxMargin+1.27)
	fmt.Fprintf(&b, "      (effects (font (size 1.27 1.27)))\n    )\n")
	fmt.Fprintf(&b, "    (property \"Value\" %q (at 0 %.4f 0)\n", name, minY-boxMargin-1.27)
	fmt.Fprintf(&b, "      (effects (font (size 1.27 1.27)))\n    )\n")
	fmt.Fprintf(&b, "    (property \"Footprint\" \"\" (at 0 0 0)\n")
	fmt.Fprintf(&b, "      (effects (font (size 1.27 1.27)) hide)\n    )\n")
	fmt.Fprintf(&b, "    (property \"Datasheet\" \"\" (at 0 0 0)\n")
	fmt.Fprintf(&b, "      (effects (font (size 1.27 1.27)) hide)\n    )\n")

	fmt.Fprintf(&b, "    (symbol \"%s_0_1\"\n", name)
	fmt.Fprintf(&b, "      (rectangle (start %.4f %.4f) (end %.4f %.4f)\n",
		minX-boxMargin, maxY+boxMargin, maxX+boxMargin, minY-boxMargin)
	fmt.Fprintf(&b, "        (stroke (width 0.254) (type default))\n")
	fmt.Fprintf(&b, "        (fill (type background))\n")
	fmt.Fprintf(&b, "      )\n    )\n")

	fmt.Fprintf(&b, "    (symbol \"%s_1_1\"\n", name)
	for _, p := range mapping.Pins {
		x, y, angle := placePin(p, centerX, centerY, minX, maxX, minY, maxY)
		writeSymbolPin(&b, p.Pad, p.Name, x, y, angle)
	}
	fmt.Fprintf(&b, "    )\n  )\n)\n")
	return b.String()
}

// placePin snaps a pin to the body side its schematic rotation points at.
func placePin(p pins.Pin, centerX, centerY, minX, maxX, minY, maxY float64) (x, y, angle float64) {
	cy := p.Y - centerY
	switch int(p.Rotation) {
	case 0:
		return maxX + boxMargin + pinLength, cy, 180
	case 90:
		return p.X - centerX, minY - boxMargin - pinLength, 90
	case 180:
		return minX - boxMargin - pinLength, cy, 0
	case 270:
		return p.X - centerX, maxY + boxMargin + pinLength, 270
	default:
		return maxX + boxMargin + pinLength, cy, 180
	}
}

func writeSymbolPin(b *strings.Builder, number, name string, x, y, angle float64) {
	fmt.Fprintf(b, "      (pin %s line (at %.4f %.4f %.0f) (length %.2f)\n",
		pinElectricalType(name), x, y, angle, pinLength)
	fmt.Fprintf(b, "        (name %q (effects (font (size 1.27 1.27))))\n", name)
	fmt.Fprintf(b, "        (number %q (effects (font (size 1.27 1.27))))\n", number)
	fmt.Fprintf(b, "      )\n")
}

// pinElectricalType guesses the electrical type from the pin name.
func pinElectricalType(name string) string {
	switch {
	case strings.Contains(name, "VCC"), strings.Contains(name, "VDD"),
		strings.Contains(name, "VIN"), strings.Contains(name, "GND"),
		strings.Contains(name, "VSS"):
		return "power_in"
	case strings.Contains(name, "OUT"):
		return "output"
	case strings.Contains(name, "IN"), strings.Contains(name, "CLK"):
		return "input"
	default:
		return "bidirectional"
	}
}

func symbolBounds(pinList []pins.Pin) (minX, maxX, minY, maxY float64) {
	if len(pinList) == 0 {
		return -5.08, 5.08, -5.08, 5.08
	}
	minX, maxX = math.Inf(1), math.Inf(-1)
	minY, maxY = math.Inf(1), math.Inf(-1)
	for _, p := range pinList {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	// Enforce a minimum body size.
	width := math.Max(maxX-minX, 5.08)
	height := math.Max(maxY-minY, 5.08)
	centerX := (minX + maxX) / 2
	centerY := (minY + maxY) / 2
	return centerX - width/2, centerX + width/2, centerY - height/2, centerY + height/2
}

// KicadFootprint renders a .kicad_mod module from parsed pad and silkscreen
// geometry, recentered on the pad bounding box.
func KicadFootprint(name string, mapping *pins.Mapping) string {
	offsetX, offsetY := padCenter(mapping.Pads)

	var b strings.Builder
	fmt.Fprintf(&b, "(footprint %q\n", name)
	fmt.Fprintf(&b, "  (version 20240108)\n")
	fmt.Fprintf(&b, "  (generator \"pcb-jlcpcb\")\n")
	fmt.Fprintf(&b, "  (generator_version \"1.0\")\n")
	fmt.Fprintf(&b, "  (layer \"F.Cu\")\n")
	fmt.Fprintf(&b, "  (fp_text reference \"REF**\" (at 0 -2) (layer \"F.SilkS\")\n")
	fmt.Fprintf(&b, "    (effects (font (size 1 1) (thickness 0.15)))\n  )\n")
	fmt.Fprintf(&b, "  (fp_text value %q (at 0 2) (layer \"F.Fab\")\n", name)
	fmt.Fprintf(&b, "    (effects (font (size 1 1) (thickness 0.15)))\n  )\n")

	for _, pad := range mapping.Pads {
		writeFootprintPad(&b, pad, offsetX, offsetY)
	}
	for _, track := range mapping.Tracks {
		fmt.Fprintf(&b, "  (fp_line (start %.4f %.4f) (end %.4f %.4f) (stroke (width %.4f) (type solid)) (layer %q))\n",
			track.X1-offsetX, track.Y1-offsetY, track.X2-offsetX, track.Y2-offsetY, track.Width, track.Layer)
	}

	fmt.Fprintf(&b, ")\n")
	return b.String()
}

func writeFootprintPad(b *strings.Builder, pad easyeda.Pad, offsetX, offsetY float64) {
	padType, layers := "smd", `"F.Cu" "F.Paste" "F.Mask"`
	if pad.ThroughHole {
		padType, layers = "thru_hole", `"*.Cu" "*.Mask"`
	}

	fmt.Fprintf(b, "  (pad %q %s %s (at %.4f %.4f", pad.Number, padType, kicadPadShape(pad.Shape), pad.X-offsetX, pad.Y-offsetY)
	if math.Abs(pad.Rotation) > 0.01 {
		fmt.Fprintf(b, " %.1f", pad.Rotation)
	}
	fmt.Fprintf(b, ") (size %.4f %.4f)", pad.Width, pad.Height)
	if pad.Drill > 0 {
		fmt.Fprintf(b, " (drill %.4f)", pad.Drill)
	}
	fmt.Fprintf(b, " (layers %s))\n", layers)
}

func kicadPadShape(shape easyeda.PadShape) string {
	switch shape {
	case easyeda.PadOval:
		return "oval"
	case easyeda.PadCircle:
		return "circle"
	default:
		return "rect"
	}
}

func padCenter(pads []easyeda.Pad) (float64, float64) {
	if len(pads) == 0 {
		return 0, 0
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range pads {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return (minX + maxX) / 2, (minY + maxY) / 2
}

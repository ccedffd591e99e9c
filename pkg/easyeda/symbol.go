package easyeda

import (
	"strconv"
	"strings"
)

// UnitsToMM converts EasyEDA 10-mil units to millimeters.
const UnitsToMM = 0.254

// PinDescriptor is one pad/pin entry from a symbol payload: the physical pad
// identifier, the display label, and the schematic position. Descriptor
// order in the payload carries no meaning.
type PinDescriptor struct {
	// Number is the physical pad identifier (e.g. "1", "A1").
	Number string
	// Name is the raw display label, supplier annotations included.
	Name string
	// X, Y are schematic coordinates in mm.
	X, Y float64
	// Rotation in degrees (0, 90, 180, 270).
	Rotation float64
}

// ParseSymbolPins extracts pin descriptors from symbol shape strings.
//
// Pin shapes start with "P~" and split into "^^" segments:
//
//	segment 0: settings — spice pad number at index 3, x/y at 4/5,
//	           rotation at 6
//	segment 3: label record — display name at index 4
//	segment 4: number record — display pad number at index 4
//
// The display pad number wins over the spice number (it carries BGA-style
// identifiers like "A1"); entries with no usable number or label are
// skipped.
func ParseSymbolPins(shapes []string) []PinDescriptor {
	var pins []PinDescriptor
	for _, shape := range shapes {
		if !strings.HasPrefix(shape, "P~") {
			continue
		}
		if pin, ok := parsePinShape(shape); ok {
			pins = append(pins, pin)
		}
	}
	return pins
}

func parsePinShape(shape string) (PinDescriptor, bool) {
	segments := strings.Split(shape, "^^")
	if len(segments) < 5 {
		return PinDescriptor{}, false
	}

	settings := strings.Split(segments[0], "~")
	if len(settings) < 7 {
		return PinDescriptor{}, false
	}
	spiceNumber := strings.TrimSpace(field(settings, 3))
	x, _ := strconv.ParseFloat(field(settings, 4), 64)
	y, _ := strconv.ParseFloat(field(settings, 5), 64)
	rotation, _ := strconv.ParseFloat(field(settings, 6), 64)

	nameParts := strings.Split(segments[3], "~")
	name := strings.TrimSpace(field(nameParts, 4))
	if name == "" {
		return PinDescriptor{}, false
	}

	numberParts := strings.Split(segments[4], "~")
	number := strings.TrimSpace(field(numberParts, 4))
	if number == "" {
		number = spiceNumber
	}
	if number == "" {
		return PinDescriptor{}, false
	}

	return PinDescriptor{
		Number:   number,
		Name:     name,
		X:        x * UnitsToMM,
		Y:        y * UnitsToMM,
		Rotation: rotation,
	}, true
}

func field(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

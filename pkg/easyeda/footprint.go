package easyeda

import (
	"sort"
	"strconv"
	"strings"
)

// PadShape is the copper shape of a footprint pad.
type PadShape int

const (
	PadRect PadShape = iota
	PadOval
	PadCircle
)

// Pad is one footprint pad with geometry in mm.
type Pad struct {
	// Number is the physical pad identifier.
	Number string
	Shape  PadShape
	// X, Y are the pad center.
	X, Y float64
	// Width, Height are the copper dimensions.
	Width, Height float64
	// Rotation in degrees.
	Rotation float64
	// ThroughHole marks plated through-hole pads.
	ThroughHole bool
	// Drill is the hole diameter for through-hole pads (0 for SMD).
	Drill float64
}

// Track is a silkscreen or courtyard line segment in mm.
type Track struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Layer          string
}

// ParseFootprintShapes extracts pads and silkscreen/courtyard tracks from
// footprint shape strings. Pads are returned sorted by pad number (numeric
// first, then letter-prefix alphanumeric) so downstream output is
// deterministic.
func ParseFootprintShapes(shapes []string) ([]Pad, []Track) {
	var pads []Pad
	var tracks []Track

	for _, shape := range shapes {
		switch {
		case strings.HasPrefix(shape, "PAD~"):
			if pad, ok := parsePad(shape); ok {
				pads = append(pads, pad)
			}
		case strings.HasPrefix(shape, "TRACK~"):
			tracks = append(tracks, parseTrack(shape)...)
		}
	}

	sort.Slice(pads, func(i, j int) bool {
		return NumberLess(pads[i].Number, pads[j].Number)
	})
	return pads, tracks
}

// parsePad decodes one PAD record:
// PAD~shape~cx~cy~width~height~layer~net~number~holeRad~points~rotation~id~...
func parsePad(shape string) (Pad, bool) {
	parts := strings.Split(shape, "~")
	if len(parts) < 13 {
		return Pad{}, false
	}

	number := parts[8]
	if number == "" {
		return Pad{}, false
	}

	cx, err1 := strconv.ParseFloat(parts[2], 64)
	cy, err2 := strconv.ParseFloat(parts[3], 64)
	width, err3 := strconv.ParseFloat(parts[4], 64)
	height, err4 := strconv.ParseFloat(parts[5], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return Pad{}, false
	}
	layer, _ := strconv.Atoi(parts[6])
	holeRad, _ := strconv.ParseFloat(parts[9], 64)
	rotation, _ := strconv.ParseFloat(parts[11], 64)

	var padShape PadShape
	switch parts[1] {
	case "RECT", "POLYGON":
		padShape = PadRect
	case "OVAL":
		padShape = PadOval
	case "ELLIPSE":
		if diff := width - height; diff < 0.01 && diff > -0.01 {
			padShape = PadCircle
		} else {
			padShape = PadOval
		}
	default:
		padShape = PadRect
	}

	// Layer 11 is the multi-layer (through-hole) layer.
	throughHole := layer == 11 || holeRad > 0

	pad := Pad{
		Number:      number,
		Shape:       padShape,
		X:           cx * UnitsToMM,
		Y:           cy * UnitsToMM,
		Width:       width * UnitsToMM,
		Height:      height * UnitsToMM,
		Rotation:    rotation,
		ThroughHole: throughHole,
	}
	if holeRad > 0 {
		pad.Drill = holeRad * 2 * UnitsToMM
	}
	return pad, true
}

// parseTrack decodes one TRACK record into line segments:
// TRACK~width~layer~net~points~id~locked
func parseTrack(shape string) []Track {
	parts := strings.Split(shape, "~")
	if len(parts) < 5 {
		return nil
	}

	width, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || width <= 0 {
		width = 0.15
	}
	layerID, _ := strconv.Atoi(parts[2])

	var layer string
	switch layerID {
	case 3, 13:
		layer = "F.SilkS"
	case 4, 14:
		layer = "B.SilkS"
	case 10, 12:
		layer = "F.CrtYd"
	default:
		// Copper, paste and mask tracks have no place in a generated
		// footprint.
		return nil
	}

	fields := strings.Fields(parts[4])
	coords := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		coords = append(coords, v)
	}
	if len(coords) < 4 {
		return nil
	}

	var tracks []Track
	for i := 0; i+3 < len(coords); i += 2 {
		tracks = append(tracks, Track{
			X1:     coords[i] * UnitsToMM,
			Y1:     coords[i+1] * UnitsToMM,
			X2:     coords[i+2] * UnitsToMM,
			Y2:     coords[i+3] * UnitsToMM,
			Width:  width * UnitsToMM,
			Layer:  layer,
		})
	}
	return tracks
}

// NumberLess orders pad identifiers: plain integers numerically, everything
// else by letter prefix then numeric suffix (A1 < A2 < B1).
func NumberLess(a, b string) bool {
	na, aerr := strconv.Atoi(a)
	nb, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return na < nb
	}
	if aerr == nil {
		return true
	}
	if berr == nil {
		return false
	}
	ap, an := splitAlphanum(a)
	bp, bn := splitAlphanum(b)
	if ap != bp {
		return ap < bp
	}
	return an < bn
}

func splitAlphanum(s string) (string, int) {
	idx := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if idx < 0 {
		return s, 0
	}
	n, _ := strconv.Atoi(s[idx:])
	return s[:idx], n
}

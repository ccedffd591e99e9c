package generator

import (
	"regexp"
	"strings"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
)

var (
	voltageRe    = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*V\b`)
	toleranceRe  = regexp.MustCompile(`±?(\d+(?:\.\d+)?)\s*%`)
	dielectricRe = regexp.MustCompile(`\b(X[57][RSTUV]|C0G|NP0|Y5V)\b`)
	powerRe      = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*W\b`)

	resistanceRes = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kKmM]?)(?:Ω|ohm|Ohm)`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kKmMrR])\s*$`),
	}
	resistanceCodeRe = regexp.MustCompile(`\b(\d+)[rR](\d+)\b`)
	capacitanceRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([nuμµp])[fF]`)
	inductanceRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([nuμµm])[hH]`)
)

// attributesFromDescription recovers electrical attributes from free text
// when the catalog record carries none.
func attributesFromDescription(desc string) catalog.Attributes {
	var attrs catalog.Attributes
	if m := voltageRe.FindStringSubmatch(desc); m != nil {
		attrs.Voltage = m[1] + "V"
	}
	if m := toleranceRe.FindStringSubmatch(desc); m != nil {
		attrs.Tolerance = m[1] + "%"
	}
	if m := dielectricRe.FindStringSubmatch(desc); m != nil {
		attrs.Dielectric = m[1]
	}
	if m := powerRe.FindStringSubmatch(desc); m != nil {
		attrs.Power = m[1] + "W"
	}
	return attrs
}

// partValue derives the primary value (resistance, capacitance or
// inductance) for a generic passive, preferring structured attributes over
// description parsing.
func partValue(part *catalog.Part) string {
	switch part.Type() {
	case catalog.TypeResistor:
		if part.Attributes.Resistance != "" {
			return part.Attributes.Resistance
		}
		if v := resistanceFromDescription(part.Description); v != "" {
			return v
		}
	case catalog.TypeCapacitor:
		if part.Attributes.Capacitance != "" {
			return part.Attributes.Capacitance
		}
		if m := capacitanceRe.FindStringSubmatch(part.Description); m != nil {
			return m[1] + normalizeMicro(m[2]) + "F"
		}
	case catalog.TypeInductor:
		if part.Attributes.Inductance != "" {
			return part.Attributes.Inductance
		}
		if m := inductanceRe.FindStringSubmatch(part.Description); m != nil {
			return m[1] + normalizeMicro(m[2]) + "H"
		}
	}
	return ""
}

func resistanceFromDescription(desc string) string {
	for _, re := range resistanceRes {
		if m := re.FindStringSubmatch(desc); m != nil {
			unit := strings.ToLower(m[2])
			if unit == "r" {
				unit = ""
			}
			return m[1] + unit + "Ω"
		}
	}
	// R-as-decimal-point codes: 4R7 reads 4.7Ω.
	if m := resistanceCodeRe.FindStringSubmatch(desc); m != nil {
		return m[1] + "." + m[2] + "Ω"
	}
	return ""
}

func normalizeMicro(unit string) string {
	if unit == "μ" || unit == "µ" {
		return "u"
	}
	return unit
}

// mergeAttributes fills unset fields of a part's attributes from
// description-derived ones.
func mergeAttributes(attrs, fallback catalog.Attributes) catalog.Attributes {
	if attrs.Voltage == "" {
		attrs.Voltage = fallback.Voltage
	}
	if attrs.Tolerance == "" {
		attrs.Tolerance = fallback.Tolerance
	}
	if attrs.Dielectric == "" {
		attrs.Dielectric = fallback.Dielectric
	}
	if attrs.Power == "" {
		attrs.Power = fallback.Power
	}
	return attrs
}

package generator

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
	"github.com/valtyr/pcb-jlcpcb/pkg/pins"
)

// componentTemplate renders a pin-mapped component module.
const componentTemplate = `"""{{.MPN}}

{{.Description}}

LCSC: {{.LCSC}}{{if .Basic}} (Basic Part){{end}}
Manufacturer: {{.Manufacturer}}
{{- if .FootprintName}}
Package: {{.FootprintName}}
{{- end}}
{{- if .Datasheet}}
Datasheet: {{.Datasheet}}
{{- end}}
{{- if .EasyEDAURL}}
EasyEDA: {{.EasyEDAURL}}
{{- end}}
{{- if .Model3D}}
3D Model: {{.Model3D}}
{{- end}}
"""

load("@stdlib/interfaces.zen", "Gnd", "Power")

name = config("name", str, default = "{{.Name}}")

# IO nets
{{- range .StructFields}}
{{.}} = io("{{.}}", Net, default = Net("{{.}}"))
{{- end}}

Component(
    name = name,
    prefix = "U",
{{- if .SymbolFile}}
    symbol = Symbol(library = "./{{.SymbolFile}}"),
{{- end}}
{{- if .FootprintFile}}
    footprint = File("./{{.FootprintFile}}"),
{{- end}}
    pin_defs = {
{{- range .Pins}}
        "{{.Number}}": "{{.Sanitized}}",
{{- end}}
    },
    pins = {
{{- range .StructFields}}
        "{{.}}": {{.}},
{{- end}}
    },
    properties = {
        "lcsc": "{{.LCSC}}",
        "mpn": "{{.MPN}}",
        "manufacturer": "{{.Manufacturer}}",
    },
)
`

// genericTemplate renders a two-pin passive on the stdlib generic modules.
const genericTemplate = `"""{{.MPN}}

{{.Description}}

LCSC: {{.LCSC}}{{if .Basic}} (Basic Part){{end}}
Manufacturer: {{.Manufacturer}}
"""

load("@stdlib/generics/{{.ComponentType}}.zen", "{{.ComponentType}}")

name = config("name", str, default = "{{.Name}}")

P1 = io("P1", Net, default = Net("{{.Pin1}}"))
P2 = io("P2", Net, default = Net("{{.Pin2}}"))

{{.ComponentType}}(
    name = name,
    value = "{{.Value}}",
    package = "{{.Package}}",
{{- if .Tolerance}}
    tolerance = "{{.Tolerance}}",
{{- end}}
{{- if .Voltage}}
    voltage = "{{.Voltage}}",
{{- end}}
{{- if .Power}}
    power = "{{.Power}}",
{{- end}}
{{- if .Dielectric}}
    dielectric = "{{.Dielectric}}",
{{- end}}
    P1 = P1,
    P2 = P2,
    properties = {
        "lcsc": "{{.LCSC}}",
        "mpn": "{{.MPN}}",
    },
)
`

type pinContext struct {
	Number    string
	Name      string
	Sanitized string
}

type componentContext struct {
	LCSC          string
	MPN           string
	Manufacturer  string
	Description   string
	Basic         bool
	Name          string
	StructFields  []string
	Pins          []pinContext
	Datasheet     string
	FootprintName string
	FootprintFile string
	SymbolFile    string
	Model3D       string
	EasyEDAURL    string
}

type genericContext struct {
	LCSC          string
	MPN           string
	Manufacturer  string
	Description   string
	Basic         bool
	ComponentType string
	Name          string
	Value         string
	Package       string
	Tolerance     string
	Voltage       string
	Power         string
	Dielectric    string
	Pin1          string
	Pin2          string
}

var zenTemplates = template.Must(template.New("component").Parse(componentTemplate))

func init() {
	template.Must(zenTemplates.New("generic").Parse(genericTemplate))
}

// renderComponentZen renders the module source for a pin-mapped component.
func renderComponentZen(part *catalog.Part, mapping *pins.Mapping, name, symbolFile, footprintFile string) (string, error) {
	pinContexts := make([]pinContext, 0, len(mapping.Pins))
	var fields []string
	seen := make(map[string]bool)
	for _, p := range mapping.Pins {
		sanitized := SanitizePinName(p.Name)
		pinContexts = append(pinContexts, pinContext{Number: p.Pad, Name: p.Name, Sanitized: sanitized})
		if !seen[sanitized] {
			seen[sanitized] = true
			fields = append(fields, sanitized)
		}
	}

	ctx := componentContext{
		LCSC:          part.LCSC,
		MPN:           part.MPN,
		Manufacturer:  part.Manufacturer,
		Description:   truncateDescription(part.Description),
		Basic:         part.Basic,
		Name:          name,
		StructFields:  fields,
		Pins:          pinContexts,
		Datasheet:     part.Datasheet,
		FootprintName: mapping.Footprint,
		FootprintFile: footprintFile,
		SymbolFile:    symbolFile,
		Model3D:       mapping.Model3D,
		EasyEDAURL:    mapping.EasyEDAURL(),
	}

	var b strings.Builder
	if err := zenTemplates.ExecuteTemplate(&b, "component", ctx); err != nil {
		return "", fmt.Errorf("generator: render component module: %w", err)
	}
	return b.String(), nil
}

// renderGenericZen renders the module source for a two-pin generic passive.
func renderGenericZen(part *catalog.Part, name string) (string, error) {
	var componentType string
	switch part.Type() {
	case catalog.TypeResistor:
		componentType = "Resistor"
	case catalog.TypeCapacitor:
		componentType = "Capacitor"
	case catalog.TypeInductor:
		componentType = "Inductor"
	default:
		return "", fmt.Errorf("generator: %s is not a generic passive", part.LCSC)
	}

	attrs := mergeAttributes(part.Attributes, attributesFromDescription(part.Description))

	ctx := genericContext{
		LCSC:          part.LCSC,
		MPN:           part.MPN,
		Manufacturer:  part.Manufacturer,
		Description:   truncateDescription(part.Description),
		Basic:         part.Basic,
		ComponentType: componentType,
		Name:          name,
		Value:         partValue(part),
		Package:       part.Package,
		Tolerance:     attrs.Tolerance,
		Voltage:       attrs.Voltage,
		Power:         attrs.Power,
		Dielectric:    attrs.Dielectric,
		Pin1:          "net1",
		Pin2:          "net2",
	}

	var b strings.Builder
	if err := zenTemplates.ExecuteTemplate(&b, "generic", ctx); err != nil {
		return "", fmt.Errorf("generator: render generic module: %w", err)
	}
	return b.String(), nil
}

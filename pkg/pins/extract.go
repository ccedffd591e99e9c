// Package pins turns a raw EasyEDA symbol payload into a deterministic
// mapping from physical pad number to electrical pin name. The mapping is
// what the component generator consumes and what gets cached under the
// "pins" namespace.
package pins

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/valtyr/pcb-jlcpcb/pkg/cache"
	"github.com/valtyr/pcb-jlcpcb/pkg/easyeda"
)

// ErrMissingSymbolData means the supplier has no symbol payload for the part.
var ErrMissingSymbolData = errors.New("pins: no symbol data for part")

// AmbiguousPadError reports two or more distinct schematic pins resolving to
// the same physical pad number. This is a data-quality problem in the
// upstream payload; it is surfaced rather than resolved by picking one.
type AmbiguousPadError struct {
	Pad    string
	Labels []string
}

func (e *AmbiguousPadError) Error() string {
	return fmt.Sprintf("pins: pad %s claimed by multiple pins (%s)", e.Pad, strings.Join(e.Labels, ", "))
}

// IncompletePadSetError reports footprint pads the symbol payload never
// accounts for.
type IncompletePadSetError struct {
	Missing []string
}

func (e *IncompletePadSetError) Error() string {
	return fmt.Sprintf("pins: footprint pads without symbol coverage: %s", strings.Join(e.Missing, ", "))
}

// Pin is one entry of a Mapping: a physical pad bound to a normalized
// electrical name. Position and rotation come from the schematic symbol and
// drive symbol rendering.
type Pin struct {
	Pad      string  `json:"pad"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// Mapping is the extracted pin mapping plus the footprint geometry needed to
// render the part. Pins are sorted ascending by pad number, so identical
// payloads always produce identical mappings.
type Mapping struct {
	PartID    string          `json:"part_id"`
	UUID      string          `json:"uuid"`
	Footprint string          `json:"footprint"`
	Model3D   string          `json:"model_3d,omitempty"`
	Pins      []Pin           `json:"pins"`
	Pads      []easyeda.Pad   `json:"pads,omitempty"`
	Tracks    []easyeda.Track `json:"tracks,omitempty"`
}

// EasyEDAURL returns the public component page, or "" when the payload
// carried no UUID.
func (m *Mapping) EasyEDAURL() string {
	if m.UUID == "" {
		return ""
	}
	return "https://easyeda.com/component/" + m.UUID
}

// Engine extracts pin mappings, consulting the cache before the network.
type Engine struct {
	client  *easyeda.Client
	store   *cache.Store
	refresh bool
	log     *zap.Logger
}

// NewEngine creates an extraction engine. With refresh set, cached mappings
// are ignored on read but still written back.
func NewEngine(client *easyeda.Client, store *cache.Store, refresh bool, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{client: client, store: store, refresh: refresh, log: log}
}

// Extract returns the pin mapping for a supplier part number.
func (e *Engine) Extract(ctx context.Context, id string) (*Mapping, error) {
	if !e.refresh && e.store != nil {
		var m Mapping
		if e.store.GetJSON(cache.NamespacePins, id, &m) {
			e.log.Debug("pin mapping cache hit", zap.String("id", id))
			return &m, nil
		}
	}

	comp, err := e.client.GetComponent(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := BuildMapping(id, comp)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		if err := e.store.PutJSON(cache.NamespacePins, id, m); err != nil {
			e.log.Warn("pin mapping cache write failed", zap.String("id", id), zap.Error(err))
		}
	}
	return m, nil
}

// BuildMapping derives a Mapping from a raw component payload. The payload's
// descriptor order carries no meaning; the result is keyed and sorted by pad
// number.
func BuildMapping(id string, comp *easyeda.Component) (*Mapping, error) {
	if comp == nil || comp.DataStr == nil || len(comp.DataStr.Shape) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSymbolData, id)
	}

	descriptors := easyeda.ParseSymbolPins(comp.DataStr.Shape)
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSymbolData, id)
	}

	byPad := make(map[string][]easyeda.PinDescriptor, len(descriptors))
	for _, d := range descriptors {
		byPad[d.Number] = append(byPad[d.Number], d)
	}
	pads := make([]string, 0, len(byPad))
	for pad := range byPad {
		pads = append(pads, pad)
	}
	sort.Slice(pads, func(i, j int) bool { return easyeda.NumberLess(pads[i], pads[j]) })

	for _, pad := range pads {
		group := byPad[pad]
		if len(group) == 1 {
			continue
		}
		labels := make([]string, 0, len(group))
		for _, d := range group {
			labels = append(labels, NormalizeLabel(d.Name))
		}
		sort.Strings(labels)
		return nil, &AmbiguousPadError{Pad: pad, Labels: labels}
	}

	m := &Mapping{PartID: id, UUID: comp.UUID}
	if pd := comp.PackageDetail; pd != nil {
		m.Footprint = pd.Title
		if pd.DataStr != nil {
			m.Pads, m.Tracks = easyeda.ParseFootprintShapes(pd.DataStr.Shape)
			if head := pd.DataStr.Head; head != nil && head.CPara != nil {
				if head.CPara.Package != "" {
					m.Footprint = head.CPara.Package
				}
				m.Model3D = head.CPara.Model3D
			}
		}
	}

	var missing []string
	for _, pad := range m.Pads {
		if _, ok := byPad[pad.Number]; !ok {
			missing = append(missing, pad.Number)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompletePadSetError{Missing: missing}
	}

	m.Pins = make([]Pin, 0, len(byPad))
	for pad, group := range byPad {
		d := group[0]
		m.Pins = append(m.Pins, Pin{
			Pad:      pad,
			Name:     NormalizeLabel(d.Name),
			X:        d.X,
			Y:        d.Y,
			Rotation: d.Rotation,
		})
	}
	sort.Slice(m.Pins, func(i, j int) bool {
		return easyeda.NumberLess(m.Pins[i].Pad, m.Pins[j].Pad)
	})
	return m, nil
}

// NormalizeLabel canonicalizes a raw pin label: whitespace trimmed, upper
// case, trailing supplier annotation characters removed.
func NormalizeLabel(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.TrimRight(name, "#~")
}

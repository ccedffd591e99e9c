// Package generator turns a catalog part and its pin mapping into a
// component module plus KiCad symbol and footprint files. It only builds
// in-memory artifacts and a suggested path; disk writes belong to the
// command layer.
package generator

import (
	"path/filepath"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
	"github.com/valtyr/pcb-jlcpcb/pkg/pins"
)

// File is one generated output file.
type File struct {
	// Name is the filename within the artifact directory.
	Name string
	// Content is the full file body.
	Content string
}

// Artifact is the complete generation result for one part.
type Artifact struct {
	// Name is the component name used in filenames and the module source.
	Name string
	// Dir is the suggested directory relative to the output root.
	Dir string
	// Files holds the module source plus any symbol/footprint files.
	Files []File
}

// Path returns the suggested relative path of a file within the artifact.
func (a *Artifact) Path(f File) string {
	return filepath.Join(a.Dir, f.Name)
}

// Generate builds the artifact for a part. Two-pin passives render on the
// stdlib generic modules and need no mapping; everything else renders a
// pin-mapped component with symbol and footprint files. With an empty
// nameOverride the name derives from the manufacturer part number. Identical
// (part, mapping) input yields byte-identical output.
func Generate(part *catalog.Part, mapping *pins.Mapping, nameOverride string) (*Artifact, error) {
	name := nameOverride
	if name == "" {
		name = SanitizeMPN(part.MPN)
	}

	artifact := &Artifact{Name: name, Dir: SanitizeMPN(part.MPN)}

	if part.GenericPassive() {
		content, err := renderGenericZen(part, name)
		if err != nil {
			return nil, err
		}
		artifact.Files = append(artifact.Files, File{Name: name + ".zen", Content: content})
		return artifact, nil
	}

	var symbolFile, footprintFile string
	if len(mapping.Pins) > 0 {
		symbolFile = name + ".kicad_sym"
	}
	if len(mapping.Pads) > 0 {
		footprintFile = name + ".kicad_mod"
	}

	content, err := renderComponentZen(part, mapping, name, symbolFile, footprintFile)
	if err != nil {
		return nil, err
	}
	artifact.Files = append(artifact.Files, File{Name: name + ".zen", Content: content})

	if symbolFile != "" {
		artifact.Files = append(artifact.Files, File{Name: symbolFile, Content: KicadSymbol(name, mapping)})
	}
	if footprintFile != "" {
		artifact.Files = append(artifact.Files, File{Name: footprintFile, Content: KicadFootprint(name, mapping)})
	}
	return artifact, nil
}

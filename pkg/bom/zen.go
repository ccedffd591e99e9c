package bom

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Board-source files are Starlark-shaped: docstrings, load statements,
// assignments and component instantiation calls. The grammar below covers
// that surface; component calls carrying an "LCSC Part" (or "lcsc")
// property become BOM lines.

var zenLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "TripleString", Pattern: `"""(?s:.*?)"""`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Float", Pattern: `[-+]?[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `[-+]?[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[()\[\]{}=,.:]`},
})

type zenFile struct {
	Statements []*zenStatement `parser:"@@*"`
}

type zenStatement struct {
	Doc    *string    `parser:"@TripleString"`
	Assign *zenAssign `parser:"| @@"`
	Expr   *zenValue  `parser:"| @@"`
}

type zenAssign struct {
	Name  string   `parser:"@Ident '='"`
	Value zenValue `parser:"@@"`
}

type zenValue struct {
	Str    *string   `parser:"@String"`
	Triple *string   `parser:"| @TripleString"`
	Float  *float64  `parser:"| @Float"`
	Int    *int64    `parser:"| @Int"`
	Call   *zenCall  `parser:"| @@"`
	Ref    *zenRef   `parser:"| @@"`
	Dict   *zenDict  `parser:"| @@"`
	List   *zenList  `parser:"| @@"`
	Tuple  *zenTuple `parser:"| @@"`
}

type zenRef struct {
	Parts []string `parser:"@Ident ( '.' @Ident )*"`
}

type zenCall struct {
	Func string    `parser:"@Ident '('"`
	Args []*zenArg `parser:"( @@ ( ',' @@ )* ','? )? ')'"`
}

type zenArg struct {
	Name  *string  `parser:"( @Ident '=' )?"`
	Value zenValue `parser:"@@"`
}

type zenDict struct {
	Entries []*zenEntry `parser:"'{' ( @@ ( ',' @@ )* ','? )? '}'"`
}

type zenEntry struct {
	Key   zenValue `parser:"@@ ':'"`
	Value zenValue `parser:"@@"`
}

type zenList struct {
	Values []*zenValue `parser:"'[' ( @@ ( ',' @@ )* ','? )? ']'"`
}

type zenTuple struct {
	Values []*zenValue `parser:"'(' @@ ( ',' @@ )* ','? ')'"`
}

var zenParser = participle.MustBuild[zenFile](
	participle.Lexer(zenLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// ParseZen extracts BOM lines from board-source text. Component calls are
// grouped by supplier part number; one line per distinct part, with one
// designator per instantiation.
func ParseZen(content string) (*Document, error) {
	file, err := zenParser.ParseString("", content)
	if err != nil {
		return nil, fmt.Errorf("bom: parse board source: %w", err)
	}

	var instances []zenInstance
	for _, stmt := range file.Statements {
		switch {
		case stmt.Assign != nil:
			collectInstances(&stmt.Assign.Value, &instances)
		case stmt.Expr != nil:
			collectInstances(stmt.Expr, &instances)
		}
	}

	doc := &Document{}
	index := make(map[string]int)
	for _, inst := range instances {
		if inst.lcsc == "" {
			continue
		}
		key := inst.lcsc
		if inst.dnp {
			key += "/dnp"
		}
		if i, ok := index[key]; ok {
			doc.Lines[i].Designators = append(doc.Lines[i].Designators, inst.designator)
			doc.Lines[i].Qty = len(doc.Lines[i].Designators)
			continue
		}
		index[key] = len(doc.Lines)
		doc.Lines = append(doc.Lines, Line{
			Designators: []string{inst.designator},
			LCSC:        inst.lcsc,
			MPN:         inst.mpn,
			Value:       inst.value,
			Package:     inst.pkg,
			Qty:         1,
			DNP:         inst.dnp,
			Record:      len(doc.Lines) + 1,
		})
	}
	return doc, nil
}

// zenInstance is one component call found in the board source.
type zenInstance struct {
	designator string
	lcsc       string
	mpn        string
	value      string
	pkg        string
	dnp        bool
}

// collectInstances walks a value tree and records component calls.
func collectInstances(v *zenValue, out *[]zenInstance) {
	switch {
	case v.Call != nil:
		if inst, ok := instanceFromCall(v.Call); ok {
			*out = append(*out, inst)
		}
		for _, arg := range v.Call.Args {
			collectInstances(&arg.Value, out)
		}
	case v.Dict != nil:
		for _, e := range v.Dict.Entries {
			collectInstances(&e.Value, out)
		}
	case v.List != nil:
		for _, item := range v.List.Values {
			collectInstances(item, out)
		}
	case v.Tuple != nil:
		for _, item := range v.Tuple.Values {
			collectInstances(item, out)
		}
	}
}

func instanceFromCall(call *zenCall) (zenInstance, bool) {
	inst := zenInstance{designator: call.Func}
	found := false
	for _, arg := range call.Args {
		if arg.Name == nil {
			continue
		}
		switch *arg.Name {
		case "name":
			if s := stringValue(&arg.Value); s != "" {
				inst.designator = s
			}
		case "lcsc":
			if s := stringValue(&arg.Value); s != "" {
				inst.lcsc = s
				found = true
			}
		case "mpn":
			inst.mpn = stringValue(&arg.Value)
		case "value":
			inst.value = stringValue(&arg.Value)
		case "package", "footprint":
			inst.pkg = stringValue(&arg.Value)
		case "dnp":
			inst.dnp = boolValue(&arg.Value)
		case "properties":
			if arg.Value.Dict == nil {
				continue
			}
			for _, e := range arg.Value.Dict.Entries {
				switch strings.ToLower(stringValue(&e.Key)) {
				case "lcsc", "lcsc part", "lcsc part #":
					if s := stringValue(&e.Value); s != "" {
						inst.lcsc = s
						found = true
					}
				case "mpn":
					inst.mpn = stringValue(&e.Value)
				case "package", "footprint":
					inst.pkg = stringValue(&e.Value)
				}
			}
		}
	}
	return inst, found
}

func stringValue(v *zenValue) string {
	if v.Str == nil {
		return ""
	}
	s := *v.Str
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

func boolValue(v *zenValue) bool {
	return v.Ref != nil && len(v.Ref.Parts) == 1 && v.Ref.Parts[0] == "True"
}

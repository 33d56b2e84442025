package typegen

import (
	"fmt"
	"strings"
)

// Declaration is one exported type declaration of an artifact. A nil Type
// renders an interface built from Fields; otherwise a type alias.
type Declaration struct {
	Name   string
	Doc    string
	Fields []Field
	Type   *Type
}

// Render returns the declaration source, ending with a newline.
func (d Declaration) Render() string {
	var sb strings.Builder
	sb.WriteString(renderDoc(d.Doc, ""))
	if d.Type != nil {
		fmt.Fprintf(&sb, "export type %s = %s;\n", d.Name, renderType(d.Type, 0))
		return sb.String()
	}
	fmt.Fprintf(&sb, "export interface %s {\n", d.Name)
	sb.WriteString(renderFields(d.Fields, 1))
	sb.WriteString("}\n")
	return sb.String()
}

// RenderDeclarations joins declarations with one blank line between them.
func RenderDeclarations(decls []Declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.Render()
	}
	return strings.Join(parts, "\n")
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// renderType renders t for a position at the given nesting depth. Only
// inline object types span lines; their closing brace aligns with depth.
func renderType(t *Type, depth int) string {
	switch t.Kind {
	case TypePrimitive, TypeNamed:
		return t.Name
	case TypeLiteralUnion:
		return literalUnion(t.Literals)
	case TypeArray:
		elem := renderType(t.Elem, depth)
		if t.Elem.Kind == TypeLiteralUnion && len(t.Elem.Literals) > 1 {
			return "(" + elem + ")[]"
		}
		return elem + "[]"
	case TypeObject:
		return "{\n" + renderFields(t.Fields, depth+1) + indent(depth) + "}"
	default:
		return OpenType
	}
}

// renderFields renders one line per field, preceded by its doc block.
func renderFields(fields []Field, depth int) string {
	var sb strings.Builder
	pad := indent(depth)
	for _, f := range fields {
		sb.WriteString(renderDoc(f.Doc, pad))
		opt := ""
		if f.Optional {
			opt = "?"
		}
		fmt.Fprintf(&sb, "%s%s%s: %s;\n", pad, tsPropertyKey(f.Name), opt, renderType(f.Type, depth))
	}
	return sb.String()
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func literalUnion(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + literalEscaper.Replace(v) + "'"
	}
	return strings.Join(quoted, " | ")
}

// renderDoc renders a doc block at pad. The first line opens the block;
// later lines continue it with " * " and the last one closes it. Blank text
// renders nothing.
func renderDoc(text, pad string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "*/", `*\/`)
	lines := strings.Split(text, "\n")

	var sb strings.Builder
	sb.WriteString(pad + "/** " + lines[0])
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			sb.WriteString("\n" + pad + " *")
			continue
		}
		sb.WriteString("\n" + pad + " * " + line)
	}
	sb.WriteString(" */\n")
	return sb.String()
}

package typegen

import (
	"strconv"
	"strings"
)

// tsBuiltins are global TypeScript type names a generated declaration must
// not shadow.
var tsBuiltins = map[string]bool{
	"Array":         true,
	"ArrayBuffer":   true,
	"BigInt":        true,
	"Boolean":       true,
	"Date":          true,
	"Error":         true,
	"Exclude":       true,
	"Extract":       true,
	"Function":      true,
	"Map":           true,
	"NonNullable":   true,
	"Number":        true,
	"Object":        true,
	"Omit":          true,
	"Partial":       true,
	"Pick":          true,
	"Promise":       true,
	"Readonly":      true,
	"ReadonlyArray": true,
	"Record":        true,
	"Required":      true,
	"ReturnType":    true,
	"Set":           true,
	"String":        true,
	"Symbol":        true,
	"Uint8Array":    true,
	"WeakMap":       true,
	"WeakSet":       true,
}

// safeTSName appends "_" to names that collide with a TypeScript builtin.
func safeTSName(name string) string {
	if tsBuiltins[name] {
		return name + "_"
	}
	return name
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if (i == 0 && !isIdentStart(r)) || (i > 0 && !isIdentPart(r)) {
			return false
		}
	}
	return true
}

// aliasName turns a schema name into the identifier of its cycle alias:
// characters outside [A-Za-z0-9_$] become "_", a leading digit gets a "_"
// prefix, and builtin collisions are suffixed.
func aliasName(schema string) string {
	var sb strings.Builder
	for i, r := range schema {
		switch {
		case i == 0 && r >= '0' && r <= '9':
			sb.WriteByte('_')
			sb.WriteRune(r)
		case isIdentPart(r):
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return safeTSName(sb.String())
}

// tsPropertyKey returns name as an object key, quoted when it is not a
// valid identifier.
func tsPropertyKey(name string) string {
	if isIdentifier(name) {
		return name
	}
	return strconv.Quote(name)
}

package symbols

import "strings"

// CSuffixes are the suffixes the IOP compiler appends to generated C type
// names, ordered longest first so suffix stripping is unambiguous.
var CSuffixes = []string{
	"__array_t",
	"__opt_t",
	"__sp",
	"__ep",
	"__t",
	"__s",
	"__e",
}

// CamelToC converts a CamelCase IOP name to its snake_case C form:
// MyStructA -> my_struct_a, HTTPCode -> http_code.
func CamelToC(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	rs := []rune(name)
	for i, r := range rs {
		if isUpper(r) && i > 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && isLower(rs[i+1])
			if isLower(prev) || isDigit(prev) || (isUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(toLower(r))
	}
	return b.String()
}

// CToCamel converts a snake_case C name back to CamelCase:
// my_struct_a -> MyStructA.
func CToCamel(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteRune(toUpper(rune(part[0])))
		b.WriteString(part[1:])
	}
	return b.String()
}

// TypeToC converts a qualified IOP type name to the base C identifier the
// compiler generates for it: tstiop.MyStructA -> tstiop__my_struct_a.
// Package dots become "__".
func TypeToC(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		pkg := strings.ReplaceAll(qualified[:i], ".", "__")
		return pkg + "__" + CamelToC(qualified[i+1:])
	}
	return CamelToC(qualified)
}

// TrimCSuffix strips a known generated-type suffix from a C identifier:
// tstiop__my_struct_a__t -> tstiop__my_struct_a.
func TrimCSuffix(ident string) string {
	for _, suf := range CSuffixes {
		if strings.HasSuffix(ident, suf) {
			return ident[:len(ident)-len(suf)]
		}
	}
	return ident
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func toLower(r rune) rune {
	if isUpper(r) {
		return r + ('a' - 'A')
	}
	return r
}

func toUpper(r rune) rune {
	if isLower(r) {
		return r - ('a' - 'A')
	}
	return r
}

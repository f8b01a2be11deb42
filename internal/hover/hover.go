// Package hover formats resolved symbols for presentation. It holds no
// resolution logic: content is a pure function of its input.
package hover

import (
	"fmt"
	"strings"

	"iopls/internal/symbols"
)

// maxFieldListing caps how many fields a type summary shows inline.
const maxFieldListing = 10

// Content is a formatted hover: a headline, the owning package and the
// attached documentation, plus an optional code-block detail.
type Content struct {
	Headline string
	Package  string
	Doc      string
	Detail   string
}

// ForSymbol formats a top-level declaration.
func ForSymbol(sym *symbols.Symbol) Content {
	headline := fmt.Sprintf("%s %s", sym.Kind, sym.Name)
	switch {
	case sym.Kind == symbols.Class && sym.Parent != "":
		headline += " : " + sym.Parent
	case sym.Kind == symbols.Typedef && sym.TypedefSource != "":
		headline = fmt.Sprintf("typedef %s → %s", sym.TypedefSource, sym.Name)
	}

	return Content{
		Headline: headline,
		Package:  fmt.Sprintf("package: %s", sym.Package),
		Doc:      sym.Doc,
		Detail:   symbolDetail(sym),
	}
}

// ForMember formats a member in its owning symbol.
func ForMember(sym *symbols.Symbol, m *symbols.Member) Content {
	switch m.Kind {
	case symbols.MemberEnumValue:
		headline := m.Name
		if m.Value != "" {
			headline += " = " + m.Value
		}
		return Content{
			Headline: headline,
			Package:  fmt.Sprintf("enum %s", sym.Qualified),
			Doc:      m.Doc,
		}

	case symbols.MemberRPC:
		return Content{
			Headline: rpcHeadline(m),
			Package:  fmt.Sprintf("interface %s", sym.Qualified),
			Doc:      m.Doc,
		}
	}

	headline := fmt.Sprintf("%s (%s%s)", m.Name, m.RawType, m.Specifier)
	if m.Default != "" {
		headline += " = " + m.Default
	}
	return Content{
		Headline: headline,
		Package:  fmt.Sprintf("%s %s", sym.Kind, sym.Qualified),
		Doc:      m.Doc,
	}
}

// ForBuiltin formats a built-in type token.
func ForBuiltin(name string) Content {
	return Content{Headline: name, Package: "built-in type"}
}

// Markdown renders the content for an LSP markdown hover.
func (c Content) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", c.Headline)
	if c.Package != "" {
		fmt.Fprintf(&b, "\n*(%s)*", c.Package)
	}
	if c.Doc != "" {
		b.WriteString("\n\n")
		b.WriteString(c.Doc)
	}
	if c.Detail != "" {
		b.WriteString("\n\n```iop\n")
		b.WriteString(c.Detail)
		b.WriteString("```")
	}
	return b.String()
}

// symbolDetail produces a short body listing: all values for enums, the
// fields of small structured types.
func symbolDetail(sym *symbols.Symbol) string {
	if sym.Kind == symbols.Enum {
		var b strings.Builder
		for _, m := range sym.Members {
			if m.Value != "" {
				fmt.Fprintf(&b, "  %s = %s,\n", m.Name, m.Value)
			} else {
				fmt.Fprintf(&b, "  %s,\n", m.Name)
			}
		}
		return b.String()
	}

	fields := 0
	for _, m := range sym.Members {
		if m.Kind == symbols.MemberField {
			fields++
		}
	}
	if fields == 0 || fields > maxFieldListing {
		return ""
	}
	var b strings.Builder
	for _, m := range sym.Members {
		if m.Kind != symbols.MemberField {
			continue
		}
		fmt.Fprintf(&b, "  %s%s %s;\n", m.RawType, m.Specifier, m.Name)
	}
	return b.String()
}

func rpcHeadline(m *symbols.Member) string {
	parts := []string{m.Name}
	if m.In != "" {
		parts = append(parts, "in "+m.In)
	}
	if m.Out != "" {
		parts = append(parts, "out "+m.Out)
	}
	if m.Throw != "" {
		parts = append(parts, "throw "+m.Throw)
	}
	return strings.Join(parts, " ")
}

// Package codegen renders canonical paths as robot motion programs.
//
// Every generator is a pure function of its inputs: the same path and program
// name always produce byte-identical text.
package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pathforge/api/internal/model"
)

// DefaultProgramName is used when the caller supplies an unusable name
const DefaultProgramName = "PATH"

// Generator renders a path in one dialect
type Generator interface {
	Dialect() model.Dialect
	Generate(path model.Path, programName string) string
}

// Optimizer reduces a path before generation
type Optimizer interface {
	OptimizePath(path model.Path) model.Path
}

// For returns the generator for a dialect. The RAPID generator uses the basic variant.
func For(d model.Dialect) (Generator, error) {
	switch d {
	case model.DialectKAREL:
		return NewKARELGenerator(), nil
	case model.DialectKRL:
		return NewKRLGenerator(), nil
	case model.DialectRAPID:
		return NewRAPIDGenerator(model.RapidVariantBasic), nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", d)
}

// Set returns one generator per supported dialect, with RAPID in the given variant
func Set(variant model.RapidVariant) []Generator {
	return []Generator{
		NewKARELGenerator(),
		NewKRLGenerator(),
		NewRAPIDGenerator(variant),
	}
}

// GenerateAll renders every generator and keys the output by dialect
func GenerateAll(gens []Generator, path model.Path, programName string) map[model.Dialect]string {
	out := make(map[model.Dialect]string, len(gens))
	for _, g := range gens {
		out[g.Dialect()] = g.Generate(path, programName)
	}
	return out
}

// SanitizeName converts a free-form name into an identifier accepted by all
// three controllers: uppercase letters, digits and underscores, starting with a
// letter, at most maxLen characters.
func SanitizeName(name string, maxLen int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '_' || r == '-' || r == ' ' || r == '.':
			if s := b.String(); s != "" && s[len(s)-1] != '_' {
				b.WriteByte('_')
			}
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		s = DefaultProgramName
	}
	if s[0] < 'A' || s[0] > 'Z' {
		s = "P_" + s
	}
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "_")
	}
	return s
}

// coord formats a coordinate with fixed 3-decimal precision
func coord(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	if s == "-0.000" {
		return "0.000"
	}
	return s
}

func writeLine(b *strings.Builder, indent int, format string, args ...any) {
	b.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

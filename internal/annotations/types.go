package annotations

import (
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
)

// Target is the declaration an annotation may be attached to
type Target int

const (
	ClassTarget Target = iota
	MethodTarget
	ParameterTarget
)

// String returns the string representation of the target
func (t Target) String() string {
	switch t {
	case ClassTarget:
		return "class"
	case MethodTarget:
		return "method"
	case ParameterTarget:
		return "parameter"
	default:
		return "unknown"
	}
}

// SourceLocation points into an annotation string. Source names the
// declaration the string belongs to, e.g. "WidgetController.GetWidget".
type SourceLocation struct {
	Source string
	Line   int // 1-based
	Column int // 1-based
}

// Annotation is one `@Name(arg, ...)` occurrence
type Annotation struct {
	Pos  lexer.Position
	Name string   `parser:"'@' @Ident"`
	Args []*Value `parser:"( '(' ( @@ ( ',' @@ )* )? ')' )?"`
}

// Location returns where the annotation starts
func (a *Annotation) Location() SourceLocation {
	return SourceLocation{Source: a.Pos.Filename, Line: a.Pos.Line, Column: a.Pos.Column}
}

// Arg returns argument i as text, or "" when absent
func (a *Annotation) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i].Text()
}

// Strings returns every argument as text
func (a *Annotation) Strings() []string {
	out := make([]string, len(a.Args))
	for i, v := range a.Args {
		out[i] = v.Text()
	}
	return out
}

// Value is an annotation argument: a quoted string, a number or a bare identifier
type Value struct {
	Pos   lexer.Position
	Str   *string  `parser:"  @String"`
	Num   *float64 `parser:"| @Number"`
	Ident *string  `parser:"| @Ident"`
}

// Text returns the argument as written, without quotes
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.Str != nil:
		return *v.Str
	case v.Num != nil:
		return strconv.FormatFloat(*v.Num, 'f', -1, 64)
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// IsIdent reports whether the argument was written as a bare identifier
func (v *Value) IsIdent() bool {
	return v != nil && v.Ident != nil
}

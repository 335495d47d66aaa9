package annotations

import (
	"errors"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// document is the root of an annotation string: zero or more annotations
type document struct {
	Annotations []*Annotation `parser:"@@*"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `-?[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[@(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var annotationParser = participle.MustBuild[document](
	participle.Lexer(annotationLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a sequence of annotations such as
//
//	@Route(GET, "/widgets/:id") @Param("id")
//
// source names the declaration the string belongs to and is reported in errors.
func Parse(source, input string) ([]*Annotation, error) {
	doc, err := annotationParser.ParseString(source, input)
	if err != nil {
		syntaxErr := &SyntaxError{
			Msg:  err.Error(),
			Loc:  SourceLocation{Source: source},
			Hint: `Use the form @Name or @Name("arg", ...)`,
		}
		var perr participle.Error
		if errors.As(err, &perr) {
			pos := perr.Position()
			syntaxErr.Msg = perr.Message()
			syntaxErr.Loc.Line, syntaxErr.Loc.Column = pos.Line, pos.Column
		}
		return nil, syntaxErr
	}
	return doc.Annotations, nil
}

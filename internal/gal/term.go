package gal

// Literal is one input to a product term: a resolved fuse-array column
// and its polarity. Resolving a source-level pin or net name to a
// column is the compiler frontend's job; the core only ever sees
// columns.
type Literal struct {
	Column int
	Neg    bool
}

// Term is a sum of product rows; each row is an AND of literals. Line
// carries the source line for diagnostics only.
type Term struct {
	Line int
	Rows [][]Literal
}

// TrueTerm returns a single-row term with no literals selected - an
// always-true product. Build does not use it: an absent tristate-enable
// term is never asserted and its row is disabled (see AddTermOpt).
func TrueTerm(line int) Term {
	return Term{Line: line, Rows: [][]Literal{{}}}
}

// FalseTerm returns a zero-row term - an always-false sum, used when
// an OLMC has no declared output.
func FalseTerm(line int) Term {
	return Term{Line: line, Rows: nil}
}

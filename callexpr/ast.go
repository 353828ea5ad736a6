package callexpr

// Expr is an untyped literal expression. Its meaning is fixed only when it
// is decoded against a value type.
type Expr interface {
	// Pos is the byte offset of the expression in the source text.
	Pos() int
	// Text is the source text of the expression.
	Text() string
}

type node struct {
	text string
	pos  int
}

func (n node) Pos() int     { return n.pos }
func (n node) Text() string { return n.text }

func newNode(src string, start, end int) node {
	return node{pos: start, text: src[start:end]}
}

// Bool is true or false.
type Bool struct {
	node
	Value bool
}

// Number is a numeric literal, kept as text until its width is known.
// Suffix is the optional explicit width ("u8", "s32", "f64").
type Number struct {
	node
	Literal string
	Suffix  string
}

// Char is a character literal.
type Char struct {
	node
	Value rune
}

// String is a string literal with escapes decoded.
type String struct {
	node
	Value string
}

// List is [e, ...].
type List struct {
	node
	Elems []Expr
}

// Tuple is (e, ...).
type Tuple struct {
	node
	Elems []Expr
}

// Field is one name: expr entry of a record literal.
type Field struct {
	Value Expr
	Name  string
	Pos   int
}

// Record is {name: e, ...}; {:} is the empty record.
type Record struct {
	node
	Fields []Field
}

// Flags is {name, ...}; {} is the empty flag set.
type Flags struct {
	node
	Names []string
}

// Label is a bare name with an optional parenthesized payload. It spells
// variant and enum cases as well as some/none and ok/err. Escaped is set
// when the label was written with a leading '%'.
type Label struct {
	node
	Payload Expr
	Name    string
	Escaped bool
}

// Call is a parsed call expression: name(arg, ...).
type Call struct {
	Name string
	Text string
	Args []Expr
}

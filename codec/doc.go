// Package codec converts between literal text and typed values.
//
// Encode reads a literal against a declared type and fails with a decode
// error (overflow, unknown_case or malformed) that names the path to the
// offending element. Format writes a value back as text that Encode reads
// to an equal value:
//
//	v, _ := codec.Encode(`{a: true, b: ["x", "y"]}`, t)
//	codec.Format(v) // {a: true, b: ["x", "y"]}
//
// The literal grammar is the one accepted by package callexpr. Under
// option<T> a bare literal stands for some(literal), and record literals
// may leave out option fields, which then read as none.
package codec
